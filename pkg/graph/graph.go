package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal converts a document to its canonical JSON form. Single endpoints
// are written as strings and group endpoints as arrays, so the output parses
// back to an equal document.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes a document as indented JSON to w.
func WriteDocument(d *Document, w io.Writer) error {
	return writeDocumentTo(d, w)
}

func writeDocumentTo(d *Document, w io.Writer) error {
	out := *d
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
