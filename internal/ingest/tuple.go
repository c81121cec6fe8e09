package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// decodeTuple decodes the printable form of a nested numeric tuple, such as
// "((3, 1700000000000, (0.1, 0.2, 0.3), (1.0, 0.0, 0.0)), (...))". Parentheses
// become brackets and the result is standardized to JSON, which drops the
// trailing comma of 1-tuples. Numbers are kept as json.Number.
func decodeTuple(line string) ([]interface{}, error) {
	s := strings.NewReplacer("(", "[", ")", "]").Replace(strings.TrimSpace(line))
	std, err := hujson.Standardize([]byte(s))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	tuple, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a tuple, got %T", v)
	}
	return tuple, nil
}

func asTuple(v interface{}, what string) ([]interface{}, error) {
	t, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected a tuple, got %T", what, v)
	}
	return t, nil
}

// asInt accepts integers and integral floats; loggers write ids as ints but
// some time stamps as floats.
func asInt(v interface{}, what string) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s: expected a number, got %T", what, v)
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return int64(f), nil
}

// asNanosToMicros converts a nanosecond time stamp to microseconds,
// truncating; float stamps are scaled before truncation.
func asNanosToMicros(v interface{}, what string) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s: expected a number, got %T", what, v)
	}
	if i, err := n.Int64(); err == nil {
		return units.NanosToMicros(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return units.FloatNanosToMicros(f), nil
}

func asVector(v interface{}, what string) ([]float64, error) {
	t, err := asTuple(v, what)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	for i, e := range t {
		n, ok := e.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected a number, got %T", what, i, e)
		}
		if out[i], err = n.Float64(); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", what, i, err)
		}
	}
	return out, nil
}

// lines splits data into trimmed, non-empty lines with their 1-based numbers.
func lines(data []byte) (numbers []int, text []string) {
	for i, l := range strings.Split(string(data), "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		numbers = append(numbers, i+1)
		text = append(text, l)
	}
	return numbers, text
}
