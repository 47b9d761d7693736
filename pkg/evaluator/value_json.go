package evaluator

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueToJSON marshals a Value to JSON bytes.
// Numbers output integers without decimal point.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Bool:
		return val.Value
	case Number:
		// Output integers without decimal point
		if isWhole(val.Value) && math.Abs(val.Value) < 1e18 {
			return int64(val.Value)
		}
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			// JSON has no representation; keep the text form.
			return FormatNumber(val.Value)
		}
		return val.Value
	case String:
		return val.Value
	}
	return nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// FormatNumber formats a float64 as an integer string if it's a whole number.
func FormatNumber(n float64) string {
	if isWhole(n) && math.Abs(n) < 1e18 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func isWhole(n float64) bool {
	return n == math.Trunc(n) && !math.IsInf(n, 0) && !math.IsNaN(n)
}
