package evaluator

// DefaultMaxDepth bounds instruction nesting when a Budget leaves MaxDepth unset.
const DefaultMaxDepth = 1000

// DefaultMaxSlots bounds the capacity of one array allocation when a Budget
// leaves MaxSlots unset.
const DefaultMaxSlots = 1 << 20

// Budget holds the resource limits for a program execution.
// Zero means unlimited, except MaxDepth and MaxSlots which fall back to
// their defaults.
type Budget struct {
	MaxDepth      int
	MaxSteps      int64
	MaxIterations int64
	TimeMs        int64
	MaxSlots      int
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Steps      int64
	Iterations int64
	Depth      int
	PeakDepth  int
}

func (b Budget) maxDepth() int {
	if b.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return b.MaxDepth
}

func (b Budget) maxSlots() int {
	if b.MaxSlots <= 0 {
		return DefaultMaxSlots
	}
	return b.MaxSlots
}
