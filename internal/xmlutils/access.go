package xmlutils

import (
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/parsererror"
)

// Child descends through nested mapping nodes, returning an empty Node when
// any step is absent or not a mapping.
func Child(node Node, keys ...string) Node {
	cur := node
	for _, k := range keys {
		next, ok := cur[k].(Node)
		if !ok {
			return Node{}
		}
		cur = next
	}
	return cur
}

// AsNode casts a normalized value to a Node, returning an empty Node for
// scalars and nil values.
func AsNode(v interface{}) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	return Node{}
}

// List returns the slice stored under an always-array tag, or nil when
// absent.
func List(node Node, key string) []interface{} {
	s, _ := node[key].([]interface{})
	return s
}

// Str returns the scalar string under a key, or "" when absent or not a
// string.
func Str(node Node, key string) string {
	s, _ := node[key].(string)
	return s
}

// RequireStr returns the scalar string under a key, failing when it is
// absent or blank. The path names the business element for triage.
func RequireStr(node Node, key, path string) (string, error) {
	s := Str(node, key)
	if s == "" {
		return "", &parsererror.FieldValidationError{Field: path, Msg: "required element missing"}
	}
	return s, nil
}

// Int returns an integer value under a key. Values already coerced by an
// int-tag rule come back as-is; anything else reports false.
func Int(node Node, key string) (int, bool) {
	n, ok := node[key].(int)
	return n, ok
}

// StrOrList flattens a value that may normalize as a single string or as a
// list of strings (e.g. repeated Ustrd lines) into a string slice.
func StrOrList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Amount reads a currency-qualified amount node of the shape
// {"@": "1.23", "@Ccy": "EUR"}. Reports false when the node is absent;
// fails when present but malformed and required.
func Amount(node Node, key, path string, required bool) (decimal.Decimal, string, bool, error) {
	sub := AsNode(node[key])
	value := Str(sub, "@")
	currency := Str(sub, "@Ccy")
	if value == "" || currency == "" {
		if required {
			return decimal.Decimal{}, "", false, &parsererror.FieldValidationError{
				Field: path, Msg: "currency amount missing or invalid",
			}
		}
		return decimal.Decimal{}, "", false, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, "", false, &parsererror.FieldValidationError{
			Field: path, Value: value, Msg: "currency amount missing or invalid",
		}
	}
	return d.Round(2), currency, true, nil
}

// isoTimestampLayouts covers the timestamp shapes banks put in CreDtTm and
// friends: with or without zone, with or without fractional seconds.
var isoTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DateTime parses an ISO 8601 timestamp element value.
func DateTime(node Node, key, path string) (time.Time, error) {
	s, err := RequireStr(node, key, path)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range isoTimestampLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, &parsererror.FieldValidationError{Field: path, Value: s, Msg: "invalid datetime"}
}

// Date parses an ISO date element value, tolerating a trailing time part.
func Date(node Node, key, path string) (time.Time, error) {
	s, err := RequireStr(node, key, path)
	if err != nil {
		return time.Time{}, err
	}
	if len(s) > 10 {
		s = s[:10]
	}
	t, perr := time.Parse("2006-01-02", s)
	if perr != nil {
		return time.Time{}, &parsererror.FieldValidationError{Field: path, Value: s, Msg: "invalid date"}
	}
	return t, nil
}
