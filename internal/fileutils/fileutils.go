// Package fileutils provides the file-level plumbing shared by the format
// parsers: suffix-based format detection and legacy text decoding.
package fileutils

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"mlindgren/bankfiles/internal/parsererror"
)

// Suffix returns the part of a filename after the last dot, or the whole
// name when it has no dot.
func Suffix(filename string) string {
	parts := strings.Split(filename, ".")
	return parts[len(parts)-1]
}

// CheckSuffix verifies that a filename carries one of the accepted
// case-insensitive suffixes for a file type. The returned error names the
// file, the file type and the accepted list.
func CheckSuffix(filename, fileType string, accepted []string) error {
	suffix := strings.ToUpper(Suffix(filename))
	for _, s := range accepted {
		if suffix == s {
			return nil
		}
	}
	return &parsererror.FormatError{
		FileName: filename,
		Msg:      fmt.Sprintf("unrecognized suffix for file type %q, accepted: %s", fileType, strings.Join(accepted, ", ")),
	}
}

// ReadLatin1File reads a file of single-byte Western European text
// (ISO-8859-1) and returns its content as UTF-8.
func ReadLatin1File(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return DecodeLatin1(data)
}

// DecodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string.
func DecodeLatin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode ISO-8859-1 content: %w", err)
	}
	return string(out), nil
}

// SplitLines splits file content on newlines, dropping carriage returns.
// Blank lines are kept: line numbers reported in errors must match the
// source file.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
