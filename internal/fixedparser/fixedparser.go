// Package fixedparser implements the low-level grammar for fixed-width bank
// file records: picture-clause field specs, line slicing and the type
// conversions shared by the TITO, SVM and AEB43 parsers.
//
// A record layout is an ordered table of fields described with COBOL-style
// picture clauses: "X(14)" is a 14 character alphanumeric field, "9(6)" a six
// digit numeric field, and a bare run such as "XXX" or "99" carries its length
// implicitly. These tables are the wire contract of each format and must be
// reproduced field-for-field.
package fixedparser

import (
	"regexp"
	"strconv"
	"strings"

	"mlindgren/bankfiles/internal/parsererror"
)

// FieldKind is the declared type of a fixed-width field.
type FieldKind int

const (
	// Alphanumeric fields accept any characters ("X" picture).
	Alphanumeric FieldKind = iota
	// Numeric fields accept ASCII digits only ("9" picture).
	Numeric
)

// FieldSpec describes one field of a fixed-width record.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Length   int
	Required bool
}

// RecordSchema is an ordered, immutable sequence of field specs. Schemas are
// built once as package-level tables and shared between parses.
type RecordSchema struct {
	Fields []FieldSpec
}

var (
	simpleField   = regexp.MustCompile(`^(X|9)+$`)
	variableField = regexp.MustCompile(`^(X|9)\((\d+)\)$`)
)

// parsePicture resolves a picture clause into a field kind and length.
// Panics on malformed clauses: schema tables are static data and a bad
// clause is a programming error, not an input error.
func parsePicture(picture string) (FieldKind, int) {
	if simpleField.MatchString(picture) {
		kind := Alphanumeric
		if picture[0] == '9' {
			kind = Numeric
		}
		return kind, len(picture)
	}
	m := variableField.FindStringSubmatch(picture)
	if m == nil {
		panic("fixedparser: malformed picture clause " + strconv.Quote(picture))
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		panic("fixedparser: malformed picture clause " + strconv.Quote(picture))
	}
	kind := Alphanumeric
	if m[1] == "9" {
		kind = Numeric
	}
	return kind, n
}

// M declares a mandatory field from a picture clause.
func M(name, picture string) FieldSpec {
	kind, n := parsePicture(picture)
	return FieldSpec{Name: name, Kind: kind, Length: n, Required: true}
}

// O declares an optional field from a picture clause.
func O(name, picture string) FieldSpec {
	kind, n := parsePicture(picture)
	return FieldSpec{Name: name, Kind: kind, Length: n, Required: false}
}

// NewSchema builds a record schema from an ordered field list.
func NewSchema(fields ...FieldSpec) *RecordSchema {
	return &RecordSchema{Fields: fields}
}

// Record is the generic output of the line parser: trimmed field values by
// name, the source line number and the unconsumed tail of the line. Format
// dispatchers convert records into typed structs; the map never travels
// further up.
type Record struct {
	LineNumber int
	ExtraData  string

	values map[string]string
}

// Str returns the trimmed value of a field, or "" when absent.
func (r *Record) Str(name string) string {
	return r.values[name]
}

// Has reports whether the record carries a field with the given name.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Options controls record-length verification for one parse.
type Options struct {
	// CheckRecordLength enables the declared-length check. Parse enables it
	// by default; sub-record headers with free-form tails turn it off.
	CheckRecordLength bool
	// RecordLength is the declared record length when the record itself does
	// not carry a record_length field. Zero means no declared length.
	RecordLength int
}

// Parse consumes one line against a schema with the default options
// (record-length checking on).
func Parse(line string, schema *RecordSchema, lineNumber int) (*Record, error) {
	return ParseWithOptions(line, schema, lineNumber, Options{CheckRecordLength: true})
}

// ParseWithOptions consumes one line against a schema. Fields are sliced in
// order; numeric fields must be all digits. The remainder of the line becomes
// ExtraData. When length checking is on and a record length is declared
// (either by a parsed record_length field or by opts.RecordLength), a record
// whose consumed length differs from the declared one fails unless the
// trimmed extra data is blank; trailing padding is tolerated, truncated or
// overflowing records are not.
func ParseWithOptions(line string, schema *RecordSchema, lineNumber int, opts Options) (*Record, error) {
	runes := []rune(line)
	rec := &Record{LineNumber: lineNumber, values: make(map[string]string, len(schema.Fields))}
	pos := 0
	for _, f := range schema.Fields {
		if pos+f.Length > len(runes) {
			return nil, &parsererror.FieldValidationError{
				LineNumber: lineNumber,
				Field:      f.Name,
				Value:      string(runes[min(pos, len(runes)):]),
			}
		}
		value := string(runes[pos : pos+f.Length])
		if f.Kind == Numeric {
			for _, ch := range value {
				if ch < '0' || ch > '9' {
					return nil, &parsererror.FieldValidationError{
						LineNumber: lineNumber,
						Field:      f.Name,
						Value:      value,
					}
				}
			}
		}
		rec.values[f.Name] = strings.TrimSpace(value)
		pos += f.Length
	}
	rec.ExtraData = string(runes[pos:])

	recordLength := opts.RecordLength
	if v := rec.Str("record_length"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			recordLength = n
		}
	}
	if opts.CheckRecordLength && recordLength > 0 {
		rec.ExtraData = strings.TrimSpace(rec.ExtraData)
		if pos != recordLength && rec.ExtraData != "" {
			return nil, &parsererror.LengthMismatchError{
				LineNumber:     lineNumber,
				RecordLength:   recordLength,
				ConsumedLength: pos + len(rec.ExtraData),
				ExtraData:      rec.ExtraData,
			}
		}
	}
	return rec, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
