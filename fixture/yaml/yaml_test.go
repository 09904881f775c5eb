package yaml

import (
	"testing"

	"github.com/zoobzio/carbon/fixture"
)

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/yaml" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/yaml")
	}
}

func TestDecode_GenericGraph(t *testing.T) {
	data := []byte(`
name: root
items:
  - 1
  - 2
  - k: v
meta:
  ok: true
`)

	v, err := fixture.Decode(New(), data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("Decode() = %T, want map[string]any", v)
	}
	if m["name"] != "root" {
		t.Errorf("name = %v, want root", m["name"])
	}
	items, ok := m["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("items = %#v, want three-element []any", m["items"])
	}
	if _, ok := items[2].(map[string]any); !ok {
		t.Errorf("items[2] = %T, want map[string]any", items[2])
	}
}

func TestDecode_NonStringKeys(t *testing.T) {
	v, err := fixture.Decode(New(), []byte("1: one\n2: two\n"))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m := v.(map[string]any)
	if m["1"] != "one" || m["2"] != "two" {
		t.Errorf("Decode() = %#v, want keys formatted as strings", m)
	}
}

func TestDecode_Anchors(t *testing.T) {
	data := []byte(`
base: &base
  a: 1
left: *base
right: *base
`)
	v, err := fixture.Decode(New(), data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m := v.(map[string]any)
	left, ok := m["left"].(map[string]any)
	if !ok || left["a"] != 1 {
		t.Errorf("left = %#v, want alias expanded", m["left"])
	}
}

func TestUnmarshal_MalformedYAML(t *testing.T) {
	var v any
	if err := New().Unmarshal([]byte("key: [unclosed"), &v); err == nil {
		t.Error("Unmarshal(malformed) should return error")
	}
}
