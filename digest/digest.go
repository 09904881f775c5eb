// Package digest computes structural fingerprints of Go value graphs.
//
// The fingerprint covers types, scalar values and the aliasing topology of the
// graph: a reference reached a second time is hashed as a back-reference to
// the order in which it was first seen. A faithful deep copy therefore has the
// same digest as its source, while a copy that split or merged shared objects
// does not. Cycles terminate through the same back-references.
package digest

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"reflect"
	"sort"
	"unsafe"

	"golang.org/x/crypto/blake2b"
)

// Size is the length of a digest in bytes.
const Size = blake2b.Size256

// Digest is a BLAKE2b-256 structural fingerprint.
type Digest [Size]byte

// String returns the digest in hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first eight hex characters.
func (d Digest) Short() string {
	return d.String()[:8]
}

// Value tags written ahead of each node.
const (
	tagNil byte = iota + 1
	tagRef
	tagBool
	tagInt
	tagUint
	tagFloat
	tagComplex
	tagString
	tagSlice
	tagArray
	tagMap
	tagPointer
	tagStruct
	tagInterface
	tagOpaque
)

type ref struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type walker struct {
	h    hash.Hash
	buf  []byte
	seen map[ref]uint64
}

func newWalker() *walker {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only a key longer than 64 bytes fails.
		panic(err)
	}
	return &walker{h: h, seen: make(map[ref]uint64)}
}

// Sum returns the structural digest of v.
func Sum(v any) Digest {
	w := newWalker()
	w.value(reflect.ValueOf(v))
	return w.sum()
}

// Equal reports whether a and b have the same structural digest.
func Equal(a, b any) bool {
	return Sum(a) == Sum(b)
}

func (w *walker) sum() Digest {
	var d Digest
	copy(d[:], w.h.Sum(nil))
	return d
}

func (w *walker) tag(t byte) {
	w.h.Write([]byte{t})
}

func (w *walker) uvarint(n uint64) {
	w.buf = binary.AppendUvarint(w.buf[:0], n)
	w.h.Write(w.buf)
}

func (w *walker) str(s string) {
	w.uvarint(uint64(len(s)))
	w.h.Write([]byte(s))
}

// visit records a reference and reports whether it was already hashed.
// Empty slices and pointers to zero-size values may share one address and are
// never treated as references.
func (w *walker) visit(v reflect.Value) bool {
	r := ref{typ: v.Type(), ptr: v.Pointer()}
	switch v.Kind() {
	case reflect.Slice:
		if v.Cap() == 0 || v.Type().Elem().Size() == 0 {
			return false
		}
		r.len = v.Len()
	case reflect.Pointer:
		if v.Type().Elem().Size() == 0 {
			return false
		}
	}
	if n, ok := w.seen[r]; ok {
		w.tag(tagRef)
		w.uvarint(n)
		return true
	}
	w.seen[r] = uint64(len(w.seen))
	return false
}

func (w *walker) value(v reflect.Value) {
	if !v.IsValid() {
		w.tag(tagNil)
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		w.tag(tagBool)
		if v.Bool() {
			w.uvarint(1)
		} else {
			w.uvarint(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.tag(tagInt)
		w.uvarint(uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w.tag(tagUint)
		w.uvarint(v.Uint())
	case reflect.Float32, reflect.Float64:
		w.tag(tagFloat)
		w.uvarint(math.Float64bits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		w.tag(tagComplex)
		c := v.Complex()
		w.uvarint(math.Float64bits(real(c)))
		w.uvarint(math.Float64bits(imag(c)))
	case reflect.String:
		w.tag(tagString)
		w.str(v.String())
	case reflect.Interface:
		if v.IsNil() {
			w.tag(tagNil)
			return
		}
		w.tag(tagInterface)
		w.str(v.Elem().Type().String())
		w.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			w.tag(tagNil)
			return
		}
		if w.visit(v) {
			return
		}
		w.tag(tagPointer)
		w.value(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			w.tag(tagNil)
			return
		}
		if w.visit(v) {
			return
		}
		w.tag(tagSlice)
		w.uvarint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			w.value(v.Index(i))
		}
	case reflect.Array:
		w.tag(tagArray)
		w.uvarint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			w.value(v.Index(i))
		}
	case reflect.Map:
		if v.IsNil() {
			w.tag(tagNil)
			return
		}
		if w.visit(v) {
			return
		}
		w.tag(tagMap)
		w.mapEntries(v)
	case reflect.Struct:
		w.tag(tagStruct)
		w.str(v.Type().String())
		sv := readable(v)
		for i := 0; i < sv.NumField(); i++ {
			w.str(sv.Type().Field(i).Name)
			w.value(field(sv, i))
		}
	default:
		// Channels, functions and unsafe pointers hash by kind only.
		w.tag(tagOpaque)
		w.str(v.Kind().String())
	}
}

// mapEntries hashes entries in the order of their key digests, so the result
// does not depend on map iteration order.
func (w *walker) mapEntries(v reflect.Value) {
	type entry struct {
		key Digest
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		kw := newWalker()
		kw.value(iter.Key())
		entries = append(entries, entry{key: kw.sum(), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key[:], entries[j].key[:]) < 0
	})

	w.uvarint(uint64(len(entries)))
	for _, e := range entries {
		w.h.Write(e.key[:])
		w.value(e.val)
	}
}

// readable returns an addressable copy of a struct so unexported fields can be read.
func readable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func field(sv reflect.Value, i int) reflect.Value {
	f := sv.Field(i)
	if f.CanInterface() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
