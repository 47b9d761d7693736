package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/runtime"
)

func (a *app) newTraceCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "trace <file.jsonl>",
		Short: "Summarize a trace written by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return exitWith(a.reportError(ioError(args[0], err), false))
			}
			defer f.Close()

			summary, err := computeTraceSummary(f)
			if err != nil {
				return exitWith(a.reportError(ioError(args[0], err), false))
			}
			if text {
				printTraceSummaryText(a.stdout, summary)
				return nil
			}
			b, err := json.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(b))
			return exitWith(runtime.ExitOK)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "human-readable summary instead of JSON")
	return cmd
}

type TraceSummary struct {
	RunIDs         []string       `json:"runIds"`
	TotalEvents    int            `json:"totalEvents"`
	Runs           int            `json:"runs"`
	FailedRuns     int            `json:"failedRuns"`
	OpCounts       map[string]int `json:"opCounts"`
	Prints         int            `json:"prints"`
	Allocations    int            `json:"allocations"`
	Assignments    int            `json:"assignments"`
	MaxDepth       int            `json:"maxDepth"`
	BudgetExceeded int            `json:"budgetExceeded"`
	InvalidLines   int            `json:"invalidLines,omitempty"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	TS    string         `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		OpCounts: make(map[string]int),
	}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			summary.InvalidLines++
			continue
		}

		summary.TotalEvents++
		if event.RunID != "" && !seen[event.RunID] {
			seen[event.RunID] = true
			summary.RunIDs = append(summary.RunIDs, event.RunID)
		}

		switch event.Event {
		case "run_start":
			summary.Runs++
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case "run_end":
			summary.EndTime = event.TS
			if ok, found := event.Data["ok"].(bool); found && !ok {
				summary.FailedRuns++
			}
		case "op_start":
			if name, ok := event.Data["op"].(string); ok {
				summary.OpCounts[name]++
			}
			if depth, ok := event.Data["depth"].(float64); ok && int(depth) > summary.MaxDepth {
				summary.MaxDepth = int(depth)
			}
		case "print":
			summary.Prints++
		case "alloc":
			summary.Allocations++
		case "assign":
			summary.Assignments++
		case "budget_exceeded":
			summary.BudgetExceeded++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Compute duration from start/end times
	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Runs: %d (%d failed) %s\n", s.Runs, s.FailedRuns, strings.Join(s.RunIDs, ", "))
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	names := make([]string, 0, len(s.OpCounts))
	total := 0
	for name, n := range s.OpCounts {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Operations: %d (max depth %d)\n", total, s.MaxDepth)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.OpCounts[name])
	}
	fmt.Fprintf(w, "Prints: %d, allocations: %d, assignments: %d\n", s.Prints, s.Allocations, s.Assignments)
	if s.BudgetExceeded > 0 {
		fmt.Fprintf(w, "Budget exceeded: %d\n", s.BudgetExceeded)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
