package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
)

// =============================================================================
// Document Parsing API
// =============================================================================

// Parse decodes a serialized document (JSON or YAML) and returns it
// normalized. Any failure is a MALFORMED_DOCUMENT error.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errs.New(errs.ErrCodeMalformedDocument, "document is empty")
	}

	var raw any
	jsonErr := json.Unmarshal(trimmed, &raw)
	if jsonErr != nil {
		if looksLikeJSON(trimmed) {
			return nil, errs.Wrap(errs.ErrCodeMalformedDocument, jsonErr, "decode JSON document")
		}
		if err := yaml.Unmarshal(trimmed, &raw); err != nil {
			return nil, errs.Wrap(errs.ErrCodeMalformedDocument, err, "decode YAML document")
		}
	}
	return fromDecoded(raw)
}

// ReadDocument decodes a document from r.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// ReadDocumentFile reads and decodes the document at path.
func ReadDocumentFile(path string) (*Document, error) {
	if err := errs.ValidateDocumentFilename(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Parse(data)
}

// FromValue normalizes an already-structured document. Accepted inputs are
// Document, *Document, map[string]any (as produced by encoding/json or
// yaml.v3), and serialized text as []byte or string.
//
// The input is never modified; the returned document is a fresh copy.
func FromValue(v any) (*Document, error) {
	switch v := v.(type) {
	case *Document:
		if v == nil {
			return nil, errs.New(errs.ErrCodeMalformedDocument, "document is nil")
		}
		return normalized(v.Clone())
	case Document:
		return normalized(v.Clone())
	case []byte:
		return Parse(v)
	case string:
		return Parse([]byte(v))
	}
	return fromDecoded(v)
}

// fromDecoded normalizes a value produced by a JSON or YAML decoder.
func fromDecoded(v any) (*Document, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, errs.New(errs.ErrCodeMalformedDocument, "top-level document must be an object, got %s", kindOf(v))
	}
	doc, err := decodeDocument(obj)
	if err != nil {
		return nil, err
	}
	return normalized(doc)
}

// =============================================================================
// Normalization
// =============================================================================

// Normalize validates d in place and applies defaults:
//   - an empty diagram name becomes DefaultDiagramName
//   - node ids must be present and unique, node types non-empty
//   - every string is valid UTF-8
//   - a subcluster without a cluster is dropped
//   - every edge needs both endpoints and a known type
//
// Edges are not checked against the node set; unresolved endpoints are a
// rendering-time concern.
func (d *Document) Normalize() error {
	if d.DiagramName == "" {
		d.DiagramName = DefaultDiagramName
	}
	if err := errs.ValidateName("diagram_name", d.DiagramName); err != nil {
		return err
	}

	seen := make(map[string]int, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if err := errs.ValidateName(fmt.Sprintf("nodes[%d].id", i), n.ID); err != nil {
			return err
		}
		if n.Type == "" {
			return errs.New(errs.ErrCodeMalformedDocument, "nodes[%d] (%s): type cannot be empty", i, n.ID)
		}
		if field := invalidUTF8(n); field != "" {
			return errs.New(errs.ErrCodeMalformedDocument, "nodes[%d] (%s): %s is not valid UTF-8", i, n.ID, field)
		}
		if prev, dup := seen[n.ID]; dup {
			return errs.New(errs.ErrCodeMalformedDocument, "nodes[%d]: duplicate id %q (first declared at nodes[%d])", i, n.ID, prev)
		}
		seen[n.ID] = i
		if n.Cluster == "" {
			n.Subcluster = ""
		}
	}

	for i := range d.Edges {
		e := &d.Edges[i]
		if e.Source.IsZero() {
			return errs.New(errs.ErrCodeMalformedDocument, "edges[%d]: source_id is required", i)
		}
		if e.Target.IsZero() {
			return errs.New(errs.ErrCodeMalformedDocument, "edges[%d]: target_id is required", i)
		}
		if !e.Type.Valid() {
			parsed, err := ParseEdgeType(string(e.Type))
			if err != nil {
				return errs.Wrap(errs.ErrCodeMalformedDocument, err, "edges[%d]", i)
			}
			e.Type = parsed
		}
	}
	return nil
}

// CheckEdgeTypes reports the first edge whose type is not one of the three
// edge semantics. Renderers call it on documents that may not have been
// normalized.
func (d *Document) CheckEdgeTypes() error {
	for i := range d.Edges {
		if t := d.Edges[i].Type; !t.Valid() {
			return errs.New(errs.ErrCodeMalformedDocument, "edges[%d]: unknown edge type %q", i, string(t))
		}
	}
	return nil
}

// invalidUTF8 names the first emitted node field that is not valid UTF-8.
func invalidUTF8(n *Node) string {
	switch {
	case !utf8.ValidString(n.Type):
		return "type"
	case !utf8.ValidString(n.Label):
		return "label"
	case !utf8.ValidString(n.Cluster):
		return "cluster"
	case !utf8.ValidString(n.Subcluster):
		return "subcluster"
	}
	return ""
}

func normalized(d *Document) (*Document, error) {
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

// =============================================================================
// Generic Decoding
// =============================================================================

func decodeDocument(obj map[string]any) (*Document, error) {
	doc := &Document{}

	name, err := optString(obj, "diagram_name", "document")
	if err != nil {
		return nil, err
	}
	doc.DiagramName = name

	if v, ok := obj["show"]; ok && v != nil {
		show, ok := v.(bool)
		if !ok {
			return nil, errs.New(errs.ErrCodeMalformedDocument, "document: show must be a boolean, got %s", kindOf(v))
		}
		doc.Show = show
	}

	nodes, err := optObjects(obj, "nodes")
	if err != nil {
		return nil, err
	}
	doc.Nodes = make([]Node, 0, len(nodes))
	for i, raw := range nodes {
		n, err := decodeNode(raw, fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, n)
	}

	edges, err := optObjects(obj, "edges")
	if err != nil {
		return nil, err
	}
	doc.Edges = make([]Edge, 0, len(edges))
	for i, raw := range edges {
		e, err := decodeEdge(raw, fmt.Sprintf("edges[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Edges = append(doc.Edges, e)
	}

	return doc, nil
}

func decodeNode(obj map[string]any, where string) (Node, error) {
	var n Node
	var err error
	if n.ID, err = reqString(obj, "id", where); err != nil {
		return Node{}, err
	}
	if n.Type, err = reqString(obj, "type", where); err != nil {
		return Node{}, err
	}
	if n.Label, err = optString(obj, "label", where); err != nil {
		return Node{}, err
	}
	if n.Cluster, err = optString(obj, "cluster", where); err != nil {
		return Node{}, err
	}
	if n.Subcluster, err = optString(obj, "subcluster", where); err != nil {
		return Node{}, err
	}
	if n.Properties, err = optProperties(obj, where); err != nil {
		return Node{}, err
	}
	return n, nil
}

func decodeEdge(obj map[string]any, where string) (Edge, error) {
	var e Edge
	var err error
	if e.Source, err = reqEndpoint(obj, "source_id", where); err != nil {
		return Edge{}, err
	}
	if e.Target, err = reqEndpoint(obj, "target_id", where); err != nil {
		return Edge{}, err
	}
	tag, err := reqString(obj, "type", where)
	if err != nil {
		return Edge{}, err
	}
	if e.Type, err = ParseEdgeType(tag); err != nil {
		return Edge{}, errs.Wrap(errs.ErrCodeMalformedDocument, err, "%s", where)
	}
	if e.Properties, err = optProperties(obj, where); err != nil {
		return Edge{}, err
	}
	return e, nil
}

func reqEndpoint(obj map[string]any, key, where string) (Endpoint, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return Endpoint{}, errs.New(errs.ErrCodeMalformedDocument, "%s: %s is required", where, key)
	}
	switch v := v.(type) {
	case string:
		return Single(v), nil
	case []string:
		return Group(v...), nil
	case []any:
		ids := make([]string, 0, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return Endpoint{}, errs.New(errs.ErrCodeMalformedDocument, "%s: %s[%d] must be a string, got %s", where, key, i, kindOf(item))
			}
			ids = append(ids, id)
		}
		return Group(ids...), nil
	default:
		return Endpoint{}, errs.New(errs.ErrCodeMalformedDocument, "%s: %s must be a node id or a list of node ids, got %s", where, key, kindOf(v))
	}
}

func reqString(obj map[string]any, key, where string) (string, error) {
	s, err := optString(obj, key, where)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errs.New(errs.ErrCodeMalformedDocument, "%s: %s is required", where, key)
	}
	return s, nil
}

// optString reads an optional string field. Missing and null values read as "".
func optString(obj map[string]any, key, where string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.New(errs.ErrCodeMalformedDocument, "%s: %s must be a string, got %s", where, key, kindOf(v))
	}
	return s, nil
}

func optProperties(obj map[string]any, where string) (map[string]any, error) {
	v, ok := obj["properties"]
	if !ok || v == nil {
		return nil, nil
	}
	props, ok := asObject(v)
	if !ok {
		return nil, errs.New(errs.ErrCodeMalformedDocument, "%s: properties must be an object, got %s", where, kindOf(v))
	}
	if len(props) == 0 {
		return nil, nil
	}
	return props, nil
}

// optObjects reads an optional sequence of objects. A missing or null field
// reads as an empty sequence.
func optObjects(obj map[string]any, key string) ([]map[string]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	var list []any
	switch v := v.(type) {
	case []any:
		list = v
	case []map[string]any:
		return v, nil
	case []map[any]any:
		list = make([]any, len(v))
		for i, m := range v {
			list[i] = m
		}
	default:
		return nil, errs.New(errs.ErrCodeMalformedDocument, "%s must be a list, got %s", key, kindOf(v))
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := asObject(item)
		if !ok {
			return nil, errs.New(errs.ErrCodeMalformedDocument, "%s[%d] must be an object, got %s", key, i, kindOf(item))
		}
		out = append(out, m)
	}
	return out, nil
}

// asObject accepts the map shapes produced by encoding/json and yaml.v3.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func looksLikeJSON(data []byte) bool {
	return len(data) > 0 && (data[0] == '{' || data[0] == '[' || data[0] == '"')
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, uint64:
		return "number"
	case []any, []string, []map[string]any, []map[any]any:
		return "list"
	case map[string]any, map[any]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
