// Package document provides a JSON-shaped document type for facet data, path
// addressing into it, and a Backend that keeps every facet of a base object
// inside the base object's own document.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Document is a JSON object. Nested objects may be Document or
// map[string]any; helpers accept both.
type Document map[string]any

// Path errors.
var (
	ErrInvalidPath = errors.New("invalid document path")
	ErrNotObject   = errors.New("path does not address an object")
)

// New returns an empty document.
func New() Document { return Document{} }

// asObject returns v as a map when it is a JSON object.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// segment is one parsed path element: a field name and an optional index
// into the array that field holds.
type segment struct {
	field string
	index int // -1 when absent
}

// parseSegment splits "items[2]" into ("items", 2).
func parseSegment(s string) (segment, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" || strings.IndexByte(s, ']') >= 0 {
			return segment{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		return segment{field: s, index: -1}, nil
	}
	if open == 0 || !strings.HasSuffix(s, "]") {
		return segment{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return segment{}, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, s)
	}
	return segment{field: s[:open], index: idx}, nil
}

// Get returns the value addressed by path. Each element names a field and may
// end in an array index, e.g. Get("teams[1]", "name"). The boolean is false
// when any step is missing or has the wrong shape. An empty path addresses
// the document itself.
func (d Document) Get(path ...string) (any, bool) {
	var cur any = d
	for _, p := range path {
		seg, err := parseSegment(p)
		if err != nil {
			return nil, false
		}
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg.field]
		if !ok {
			return nil, false
		}
		if seg.index >= 0 {
			arr, ok := cur.([]any)
			if !ok || seg.index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.index]
		}
	}
	return cur, true
}

// GetString returns the string addressed by path.
func (d Document) GetString(path ...string) (string, bool) {
	v, ok := d.Get(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetDocument returns the object addressed by path.
func (d Document) GetDocument(path ...string) (Document, bool) {
	v, ok := d.Get(path...)
	if !ok {
		return nil, false
	}
	m, ok := asObject(v)
	return Document(m), ok
}

// Set stores value at path, creating intermediate objects as needed. Array
// indexes must address existing elements.
func (d Document) Set(value any, path ...string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	obj := map[string]any(d)
	for i, p := range path {
		seg, err := parseSegment(p)
		if err != nil {
			return err
		}
		last := i == len(path)-1

		if seg.index >= 0 {
			arr, ok := obj[seg.field].([]any)
			if !ok || seg.index >= len(arr) {
				return fmt.Errorf("%w: no element %s", ErrInvalidPath, strings.Join(path[:i+1], "."))
			}
			if last {
				arr[seg.index] = value
				return nil
			}
			next, ok := asObject(arr[seg.index])
			if !ok {
				return fmt.Errorf("%w: %s", ErrNotObject, strings.Join(path[:i+1], "."))
			}
			obj = next
			continue
		}

		if last {
			obj[seg.field] = value
			return nil
		}
		child, exists := obj[seg.field]
		if !exists {
			next := Document{}
			obj[seg.field] = next
			obj = next
			continue
		}
		next, ok := asObject(child)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotObject, strings.Join(path[:i+1], "."))
		}
		obj = next
	}
	return nil
}

// Delete removes the field addressed by path and reports whether it existed.
func (d Document) Delete(path ...string) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := d.Get(path[:len(path)-1]...)
	if !ok {
		return false
	}
	obj, ok := asObject(parent)
	if !ok {
		return false
	}
	if _, ok := obj[path[len(path)-1]]; !ok {
		return false
	}
	delete(obj, path[len(path)-1])
	return true
}

// Clone returns a deep copy made through a JSON round trip, so the copy
// contains only JSON types.
func (d Document) Clone() (Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	out := Document{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return out, nil
}
