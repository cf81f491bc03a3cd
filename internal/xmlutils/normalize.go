// Package xmlutils converts raw ISO 20022 XML messages into a generic nested
// map structure the business-level extractors navigate. Which tags are always
// collections and which are integers is part of each message type's wire
// contract and is configured by the caller; this package knows nothing about
// any particular message.
package xmlutils

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"mlindgren/bankfiles/internal/parsererror"
)

// Options selects the tag-level normalization rules for one message type.
type Options struct {
	// ArrayTags always normalize to a slice, even with a single element.
	ArrayTags []string
	// IntTags normalize their text content to an int.
	IntTags []string
}

// Node is one level of a normalized XML tree: child elements keyed by tag,
// attributes under "@Name" keys and element text under "@" when it coexists
// with attributes or children.
type Node = map[string]interface{}

// Normalize parses an XML document and returns the content of its root
// element as a Node. The root tag itself is stripped; callers address the
// message body directly (e.g. "BkToCstmrStmt").
func Normalize(data []byte, opts Options) (Node, error) {
	arrays := toSet(opts.ArrayTags)
	ints := toSet(opts.IntTags)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, &parsererror.FormatError{Msg: "XML document has no root element"}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			value, err := parseElement(dec, start, arrays, ints)
			if err != nil {
				return nil, err
			}
			if node, ok := value.(Node); ok {
				return node, nil
			}
			// Scalar root element: surface it under its own tag.
			return Node{start.Name.Local: value}, nil
		}
	}
}

// parseElement consumes one element and returns its normalized value: a Node
// when the element has children or attributes, otherwise its text (or int)
// content.
func parseElement(dec *xml.Decoder, start xml.StartElement, arrays, ints map[string]bool) (interface{}, error) {
	children := Node{}
	var text strings.Builder
	hasChildren := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML element %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			hasChildren = true
			value, err := parseElement(dec, t, arrays, ints)
			if err != nil {
				return nil, err
			}
			insertChild(children, t.Name.Local, value, arrays)
		case xml.EndElement:
			return finishElement(start, children, hasChildren, text.String(), ints)
		}
	}
}

func finishElement(start xml.StartElement, children Node, hasChildren bool, text string, ints map[string]bool) (interface{}, error) {
	tag := start.Name.Local
	trimmed := strings.TrimSpace(text)

	if !hasChildren {
		var value interface{} = trimmed
		if ints[tag] {
			n, err := strconv.Atoi(trimmed)
			if err != nil {
				return nil, &parsererror.FieldValidationError{Field: tag, Value: trimmed, Msg: "integer tag"}
			}
			value = n
		}
		if len(start.Attr) == 0 {
			return value, nil
		}
		node := Node{"@": value}
		addAttrs(node, start.Attr)
		return node, nil
	}

	if trimmed != "" {
		children["@"] = trimmed
	}
	addAttrs(children, start.Attr)
	return children, nil
}

func insertChild(parent Node, tag string, value interface{}, arrays map[string]bool) {
	existing, present := parent[tag]
	switch {
	case arrays[tag]:
		if !present {
			parent[tag] = []interface{}{value}
		} else {
			parent[tag] = append(existing.([]interface{}), value)
		}
	case !present:
		parent[tag] = value
	default:
		// Repeated tag outside the always-array set: promote to a slice.
		if slice, ok := existing.([]interface{}); ok {
			parent[tag] = append(slice, value)
		} else {
			parent[tag] = []interface{}{existing, value}
		}
	}
}

func addAttrs(node Node, attrs []xml.Attr) {
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		node["@"+a.Name.Local] = a.Value
	}
}

func toSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

// charsetReader supports the legacy single-byte encodings that occasionally
// show up in bank XML declarations.
func charsetReader(cs string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(cs) {
	case "utf-8", "us-ascii", "":
		return input, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "iso-8859-15":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported XML charset %q", cs)
}
