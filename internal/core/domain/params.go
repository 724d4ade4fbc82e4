package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ParameterSet is an ordered mapping of parameter names to values.
// Values are scalars (string, bool, json.Number, int64, float64, nil),
// nested *ParameterSet values, or []any lists of the same.
type ParameterSet struct {
	keys   []string
	values map[string]any
}

// NewParameterSet creates an empty parameter set.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]any)}
}

// Set assigns a value, keeping the original position when the key already exists.
func (p *ParameterSet) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// SetPath assigns a value under a dotted path, creating nested sets as needed.
func (p *ParameterSet) SetPath(path string, value any) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		p.Set(head, value)
		return
	}
	child, ok := p.values[head].(*ParameterSet)
	if !ok {
		child = NewParameterSet()
		p.Set(head, child)
	}
	child.SetPath(rest, value)
}

// Get returns the value stored under key.
func (p *ParameterSet) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the parameter names in insertion order.
func (p *ParameterSet) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// Len returns the number of top-level parameters.
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// All iterates parameters in insertion order.
func (p *ParameterSet) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// Flatten returns every leaf value keyed by its dotted path, in insertion order.
func (p *ParameterSet) Flatten() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		p.flatten("", yield)
	}
}

func (p *ParameterSet) flatten(prefix string, yield func(string, any) bool) bool {
	for k, v := range p.All() {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(*ParameterSet); ok {
			if !child.flatten(path, yield) {
				return false
			}
			continue
		}
		if !yield(path, v) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a JSON object preserving key order.
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, zerr.With(err, "parameter", k)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
// Numbers are kept as json.Number so that re-encoding is lossless.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return zerr.Wrap(err, ErrParameterParse.Error())
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return zerr.Wrap(ErrParameterParse, "parameters must be a JSON object")
	}

	set, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*p = *set
	return nil
}

func decodeObject(dec *json.Decoder) (*ParameterSet, error) {
	set := NewParameterSet()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, zerr.Wrap(err, ErrParameterParse.Error())
		}
		key, ok := tok.(string)
		if !ok {
			return nil, zerr.Wrap(ErrParameterParse, "object key is not a string")
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, zerr.With(err, "parameter", key)
		}
		set.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, zerr.Wrap(err, ErrParameterParse.Error())
	}
	return set, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, zerr.Wrap(ErrParameterParse, "unexpected end of input")
		}
		return nil, zerr.Wrap(err, ErrParameterParse.Error())
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			list := []any{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, zerr.Wrap(err, ErrParameterParse.Error())
			}
			return list, nil
		default:
			return nil, zerr.With(zerr.Wrap(ErrParameterParse, "unexpected delimiter"), "delim", v.String())
		}
	default:
		return v, nil
	}
}

// ParseAssignment parses a "name=value" command-line assignment into set.
// Dotted names address nested sets. Values are typed as bool, integer,
// float, or quoted/unquoted string.
func ParseAssignment(set *ParameterSet, assignment string) error {
	name, raw, ok := strings.Cut(assignment, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return zerr.With(zerr.Wrap(ErrParameterParse, "expected name=value"), "assignment", assignment)
	}
	set.SetPath(name, ParseScalar(strings.TrimSpace(raw)))
	return nil
}

// ParseScalar types a raw command-line value.
func ParseScalar(raw string) any {
	if unq, err := strconv.Unquote(raw); err == nil {
		return unq
	}
	switch raw {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "null", "None":
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// ChangeKind classifies an entry of a parameter diff.
type ChangeKind string

const (
	// ChangeAdded marks a path only present in the second set.
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved marks a path only present in the first set.
	ChangeRemoved ChangeKind = "removed"
	// ChangeModified marks a path whose value differs.
	ChangeModified ChangeKind = "changed"
)

// ParameterChange is one entry of a structural parameter diff.
type ParameterChange struct {
	Path string
	Kind ChangeKind
	Old  any
	New  any
}

// String renders the change for terminal output.
func (c ParameterChange) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s = %v", c.Path, c.New)
	case ChangeRemoved:
		return fmt.Sprintf("- %s = %v", c.Path, c.Old)
	default:
		return fmt.Sprintf("~ %s: %v -> %v", c.Path, c.Old, c.New)
	}
}

// DiffParameters compares two parameter sets leaf by leaf.
// Changes are ordered by the first set's key order, followed by additions.
func DiffParameters(a, b *ParameterSet) []ParameterChange {
	left := collect(a)
	right := collect(b)

	var changes []ParameterChange
	for _, path := range left.order {
		lv := left.values[path]
		rv, ok := right.values[path]
		switch {
		case !ok:
			changes = append(changes, ParameterChange{Path: path, Kind: ChangeRemoved, Old: lv})
		case !sameValue(lv, rv):
			changes = append(changes, ParameterChange{Path: path, Kind: ChangeModified, Old: lv, New: rv})
		}
	}
	for _, path := range right.order {
		if _, ok := left.values[path]; !ok {
			changes = append(changes, ParameterChange{Path: path, Kind: ChangeAdded, New: right.values[path]})
		}
	}
	return changes
}

type flatSet struct {
	order  []string
	values map[string]any
}

func collect(p *ParameterSet) flatSet {
	fs := flatSet{values: make(map[string]any)}
	for path, v := range p.Flatten() {
		fs.order = append(fs.order, path)
		fs.values[path] = v
	}
	return fs
}

// sameValue compares leaves numerically when both are numbers, so that
// 1 (int64) and "1" (json.Number) read back from disk compare equal.
func sameValue(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			if f, ok := asFloat(item); ok {
				out[i] = f
				continue
			}
			out[i] = normalize(item)
		}
		return out
	case *ParameterSet:
		m := make(map[string]any, x.Len())
		for k, item := range x.All() {
			if f, ok := asFloat(item); ok {
				m[k] = f
				continue
			}
			m[k] = normalize(item)
		}
		return m
	default:
		return v
	}
}
