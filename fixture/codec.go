// Package fixture loads benchmark graphs from encoded files and reintroduces
// the aliasing that encoding flattens.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/zoobzio/carbon/digest"
)

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// ErrEmpty indicates a fixture that decoded to nothing.
var ErrEmpty = errors.New("empty fixture")

// Load reads path and decodes it with c into a generic graph.
func Load(c Codec, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Decode(c, data)
}

// Decode decodes data with c into a graph of map[string]any, []any and scalars.
func Decode(c Codec, data []byte) (any, error) {
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s fixture: %w", c.ContentType(), err)
	}
	if v == nil {
		return nil, ErrEmpty
	}
	return Normalize(v), nil
}

// Normalize rewrites decoder-specific containers into map[string]any and []any.
// Maps with non-string keys get their keys formatted with %v.
func Normalize(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.Interface {
				k = k.Elem()
			}
			key := fmt.Sprint(k.Interface())
			if k.Kind() == reflect.String {
				key = k.String()
			}
			out[key] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		if rv.Type().Elem().Kind() == reflect.Struct {
			// Ordered documents decode as slices of key/value structs.
			if doc, ok := orderedDocument(rv); ok {
				return doc
			}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// orderedDocument converts a slice of {Key string; Value any} structs.
func orderedDocument(rv reflect.Value) (map[string]any, bool) {
	et := rv.Type().Elem()
	kf, kok := et.FieldByName("Key")
	vf, vok := et.FieldByName("Value")
	if !kok || !vok || kf.Type.Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		out[e.FieldByIndex(kf.Index).String()] = Normalize(e.FieldByIndex(vf.Index).Interface())
	}
	return out, true
}

// Share interns structurally identical map and slice subtrees so each
// distinct subtree is held once. Decoded fixtures have no aliasing; sharing
// gives the deep copier's memo real work. It returns the new graph and the
// number of references redirected to an earlier subtree. v must be acyclic,
// as decoded fixtures are.
func Share(v any) (any, int) {
	s := &sharer{seen: make(map[digest.Digest]any)}
	out := s.walk(v)
	return out, s.shared
}

type sharer struct {
	seen   map[digest.Digest]any
	shared int
}

func (s *sharer) walk(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = s.walk(t[k])
		}
		return s.intern(out)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.walk(e)
		}
		return s.intern(out)
	}
	return v
}

func (s *sharer) intern(v any) any {
	d := digest.Sum(v)
	if prev, ok := s.seen[d]; ok {
		s.shared++
		return prev
	}
	s.seen[d] = v
	return v
}
