// Package help holds the built-in reference text shown by `tll help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/tll/pkg/evaluator"
)

// Version is the tll release reported by `tll version` and the quick reference.
const Version = "v0.3.0"

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "values", "operators", "storage", "errors", "budget", "config", "examples"}

// QUICKREF is printed by `tll help` with no topic.
var QUICKREF = `TLL ` + Version + ` - tree-walking instruction evaluator

A program is one JSON (or YAML) value. Scalars evaluate to themselves.
A list ["op", arg1, arg2, ...] applies the operator to its arguments.

  ["seq",
    ["array", "new", 4],
    ["set", "x", 10],
    ["print", "x is", ["get", "x"]]]

Commands:
  tll run <file>        evaluate and print the result
  tll check <file>      decode and validate without running
  tll fmt <file>        print the canonical form
  tll repl              interactive session with a persistent environment
  tll trace <file>      summarize a trace written by run --trace

Topics (tll help <topic>):
  ` + strings.Join(TopicList, ", ") + `
`

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Programs are decoded from JSON by default, or from YAML when the file ends
in .yaml/.yml (or with --format yaml).

  literal      42, 2.5, "text", true, false, null
  instruction  ["op", arg, ...]   the first element must be a string tag

Objects/mappings are rejected. Arguments are themselves instructions and
are evaluated by the operator, so an operator decides which arguments run
and in what order.
`,
	"values": `VALUES

Four kinds: null, boolean, number (float64), string.

Truthiness: null, false, 0 and "" are falsy; everything else is truthy.

print renders values separated by a single space: whole numbers without a
decimal point, strings without quotes, null/true/false as words.
`,
	"operators": operatorsTopic(),
	"storage": `STORAGE

Variables live in a fixed-size slot array:

  ["array", "new", N]   allocate N null slots and reset the cursor to 0
  ["set", "x", expr]    write expr into the slot at the cursor, bind x to it,
                        advance the cursor
  ["get", "x"]          read the slot x is bound to

Every set takes a fresh slot, including re-assignment of an existing name,
so N must cover the total number of set operations (and repeat iterations).
Allocating again resets the cursor but keeps existing bindings.

repeat evaluates its body first and then assigns the iteration index:

  ["seq", ["array", "new", 8], ["set", "i", -1],
          ["repeat", 3, ["print", ["get", "i"]], "i"]]

prints -1, 0, 1.
`,
	"errors": `ERRORS

  E_PARSE          input is not a valid program
  E_UNKNOWN_OP     unknown or malformed operator tag
  E_ARITY          wrong number of arguments
  E_TYPE           operand types do not fit the operator
  E_UNINITIALIZED  set/get before ["array", "new", N]
  E_UNBOUND        get of a name that was never set
  E_OUT_OF_BOUNDS  no free slot left, or a binding beyond the capacity
  E_ARRAY_OP       array operation other than "new"
  E_EMPTY_REPEAT   repeat with a count of 0
  E_BUDGET         depth, step, iteration or time limit exceeded
  E_IO             file or output failure

Exit status: 0 ok, 1 usage/io, 2 decode/validation, 4 runtime, 6 budget.
`,
	"budget": `BUDGET

  maxDepth       nesting depth of instructions (default 1000)
  maxSteps       total instruction evaluations (0 = unlimited)
  maxIterations  total repeat iterations (0 = unlimited)
  timeMs         wall-clock limit (0 = unlimited)
  maxSlots       largest capacity one ["array", "new", N] may allocate
                 (default 1048576)

Set in a config file or with TLL_MAX_DEPTH, TLL_MAX_STEPS,
TLL_MAX_ITERATIONS, TLL_TIME_MS and TLL_MAX_SLOTS. Exceeding a limit fails with E_BUDGET.
`,
	"config": `CONFIG

Lookup order: ./.tll.yaml, then ~/.tll/config.yaml, then defaults.
KEY=value lines in ./.env and process environment variables override files.

  budget:
    maxDepth: 1000
    maxSteps: 0
    maxIterations: 0
    timeMs: 0
    maxSlots: 1048576
  output:
    pretty: false
  log:
    level: info

tll config prints the effective configuration and where it came from.
`,
	"examples": `EXAMPLES

Sum 1..5:
  ["seq",
    ["array", "new", 20],
    ["set", "sum", 0],
    ["set", "n", 1],
    ["repeat", 5,
      ["seq",
        ["set", "sum", ["add", ["get", "sum"], ["get", "n"]]],
        ["set", "n", ["add", ["get", "n"], 1]]],
      "i"],
    ["get", "sum"]]

Conditional:
  ["if", ["gt", 3, 2], ["print", "bigger"], ["print", "smaller"]]

Short-circuit default:
  ["seq", ["array", "new", 1], ["set", "nick", ""],
          ["or", ["get", "nick"], "anonymous"]]    => anonymous
`,
}

func operatorsTopic() string {
	var b strings.Builder
	b.WriteString("OPERATORS\n\n")
	for _, op := range evaluator.Operators() {
		fmt.Fprintf(&b, "  %-26s %s\n", op.Usage, op.Summary)
	}
	return b.String()
}

// OperatorIndex lists operators with their arity.
func OperatorIndex() string {
	ops := evaluator.Operators()
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "  %-8s %s\n", op.Name, op.ArityText())
	}
	fmt.Fprintf(&b, "Total: %d operators\n", len(ops))
	return b.String()
}

// MatchTopic resolves an exact topic name or a unique prefix of one.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	if query != "" {
		for _, name := range TopicList {
			if strings.HasPrefix(name, query) {
				matches = append(matches, name)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}
