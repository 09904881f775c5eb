package testing

import (
	"errors"
	"testing"

	"github.com/zoobzio/carbon"
)

func TestRing(t *testing.T) {
	head := Ring(3)
	if head == nil {
		t.Fatal("Ring(3) should not return nil")
	}
	if head.Next.Next.Next != head {
		t.Error("Ring(3) should close after three nodes")
	}
	if Ring(0) != nil {
		t.Error("Ring(0) should return nil")
	}
}

func TestDiamond(t *testing.T) {
	root := Diamond()
	left, right := root.Children[0], root.Children[1]

	if left.Children[0] != right.Children[0] {
		t.Error("Diamond() children should share the leaf")
	}
}

func TestSelfList(t *testing.T) {
	x := SelfList()
	inner, ok := x[0].([]any)
	if !ok {
		t.Fatalf("SelfList()[0] has type %T, want []any", x[0])
	}
	if &inner[0] != &x[0] {
		t.Error("SelfList() should contain itself")
	}
}

func TestSharedMap(t *testing.T) {
	m := SharedMap()
	a := m["a"].(map[string]any)
	b := m["b"].(map[string]any)

	a["probe"] = true
	if _, ok := b["probe"]; !ok {
		t.Error("SharedMap() values should be one map")
	}
}

func TestBag(t *testing.T) {
	b := NewBag("tools", "hammer")
	if err := b.Append("saw", "drill"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if len(b.Items()) != 3 {
		t.Errorf("Items() has %d entries, want 3", len(b.Items()))
	}

	r, err := b.Reduce()
	if err != nil {
		t.Fatalf("Reduce() error: %v", err)
	}
	out, err := r.Factory(r.Args...)
	if err != nil {
		t.Fatalf("Factory() error: %v", err)
	}
	if out.(*Bag).Label != "tools" {
		t.Errorf("Factory() label = %q, want %q", out.(*Bag).Label, "tools")
	}
	if len(r.Items) != 3 {
		t.Errorf("Reduce() items = %d, want 3", len(r.Items))
	}
}

func TestIndex(t *testing.T) {
	ix := NewIndex()
	_ = ix.Insert("b", 2)
	_ = ix.Insert("a", 1)
	_ = ix.Insert("b", 3)

	if got := ix.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Keys() = %v, want [b a]", got)
	}
	if v, _ := ix.Get("b"); v != 3 {
		t.Errorf("Get(b) = %v, want 3", v)
	}
	if err := ix.Insert(1, "x"); err == nil {
		t.Error("Insert() with a non-string key should fail")
	}

	r, err := ix.Reduce()
	if err != nil {
		t.Fatalf("Reduce() error: %v", err)
	}
	if len(r.Entries) != 2 || r.Entries[0].Key != "b" {
		t.Errorf("Reduce() entries = %v, want insertion order", r.Entries)
	}
}

func TestSlotted(t *testing.T) {
	owner := &Node{Name: "owner"}
	s := NewSlotted("s", owner)
	_ = s.SetAttr("color", "red")

	if s.Attr("color") != "red" {
		t.Errorf("Attr(color) = %v, want red", s.Attr("color"))
	}
	if s.SetCount() != 1 {
		t.Errorf("SetCount() = %d, want 1", s.SetCount())
	}

	r, err := s.Reduce()
	if err != nil {
		t.Fatalf("Reduce() error: %v", err)
	}
	state, ok := r.State.(carbon.SlotState)
	if !ok {
		t.Fatalf("Reduce() state has type %T, want carbon.SlotState", r.State)
	}
	if state.Fields["Owner"] != owner {
		t.Error("Reduce() should keep the owner in fields")
	}
	if state.Slots["color"] != "red" {
		t.Error("Reduce() should keep attributes in slots")
	}
}

func TestFailing(t *testing.T) {
	boom := errors.New("boom")
	_, err := carbon.DeepCopy(Failing{Err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("DeepCopy(Failing) error = %v, want %v", err, boom)
	}
}

func TestSingleton(t *testing.T) {
	s := &Singleton{ID: "one"}
	c, err := carbon.DeepCopy(s)
	if err != nil {
		t.Fatalf("DeepCopy() error: %v", err)
	}
	if c != s {
		t.Error("Singleton should be shared by its copy")
	}
}
