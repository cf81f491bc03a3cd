// Package parsererror defines the error types shared by every file format
// parser in this module. Parsers fail fast: the first error aborts the parse
// of the whole file and is returned to the caller unchanged.
package parsererror

import "fmt"

// FormatError reports an unrecognized file suffix or an unrecognized
// record-type tag inside an otherwise readable file.
type FormatError struct {
	FileName   string
	LineNumber int
	Tag        string
	Msg        string
}

func (e *FormatError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s(%d): unknown record type %q", e.FileName, e.LineNumber, e.Tag)
	}
	return fmt.Sprintf("%s: %s", e.FileName, e.Msg)
}

// FieldValidationError reports a field value that violates its declared type,
// or a required field (fixed-width or XML) that is missing or malformed.
type FieldValidationError struct {
	LineNumber int
	Field      string
	Value      string
	Msg        string
}

func (e *FieldValidationError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("line %d: invalid field %q value %q%s", e.LineNumber, e.Field, e.Value, suffix(e.Msg))
	}
	return fmt.Sprintf("invalid field %q value %q%s", e.Field, e.Value, suffix(e.Msg))
}

// LengthMismatchError reports a fixed-width record whose consumed length does
// not match its declared record length while trailing data is non-blank.
type LengthMismatchError struct {
	LineNumber     int
	RecordLength   int
	ConsumedLength int
	ExtraData      string
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("line %d: record length (%d) does not match length of parsed data (%d), extra data: %q",
		e.LineNumber, e.RecordLength, e.ConsumedLength, e.ExtraData)
}

// SemanticError reports a business-rule violation in an otherwise well-formed
// file: currency mismatches, inconsistent exchange information, trailer count
// mismatches and the like.
type SemanticError struct {
	Path string
	Msg  string
}

func (e *SemanticError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return e.Msg
}

func suffix(msg string) string {
	if msg == "" {
		return ""
	}
	return ": " + msg
}
