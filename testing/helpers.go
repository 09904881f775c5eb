// Package testing provides fixture graphs and protocol types for testing carbon.
package testing

import (
	"fmt"
	"slices"

	"github.com/zoobzio/carbon"
)

// Node is a linked graph node that can form cycles.
type Node struct {
	Name     string
	Next     *Node
	Children []*Node
}

// Ring returns n nodes linked into a cycle, starting at the first.
func Ring(n int) *Node {
	if n <= 0 {
		return nil
	}
	head := &Node{Name: "n0"}
	cur := head
	for i := 1; i < n; i++ {
		cur.Next = &Node{Name: fmt.Sprintf("n%d", i)}
		cur = cur.Next
	}
	cur.Next = head
	return head
}

// Diamond returns a root whose two children share one grandchild.
func Diamond() *Node {
	leaf := &Node{Name: "leaf"}
	left := &Node{Name: "left", Children: []*Node{leaf}}
	right := &Node{Name: "right", Children: []*Node{leaf}}
	return &Node{Name: "root", Children: []*Node{left, right}}
}

// SelfList returns a list whose only element is the list itself.
func SelfList() []any {
	x := make([]any, 1)
	x[0] = x
	return x
}

// SharedMap returns a map holding one inner map under two keys.
func SharedMap() map[string]any {
	shared := map[string]any{"k": []any{1, 2}}
	return map[string]any{"a": shared, "b": shared}
}

// Bag collects items through the Appender hook.
type Bag struct {
	Label string
	items []any
}

// NewBag creates a bag holding items.
func NewBag(label string, items ...any) *Bag {
	return &Bag{Label: label, items: items}
}

// Items returns the collected items.
func (b *Bag) Items() []any { return b.items }

// Reduce rebuilds a bag from its label and item stream.
func (b *Bag) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: func(args ...any) (any, error) {
			label, _ := args[0].(string)
			return &Bag{Label: label}, nil
		},
		Args:  []any{b.Label},
		Items: b.items,
	}, nil
}

// Append implements carbon.Appender.
func (b *Bag) Append(items ...any) error {
	b.items = append(b.items, items...)
	return nil
}

// Index keeps entries behind the Inserter hook.
type Index struct {
	entries map[string]any
	order   []string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]any)}
}

// Get returns the value stored under key.
func (ix *Index) Get(key string) (any, bool) {
	v, ok := ix.entries[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (ix *Index) Keys() []string { return slices.Clone(ix.order) }

// Insert implements carbon.Inserter.
func (ix *Index) Insert(key, value any) error {
	k, ok := key.(string)
	if !ok {
		return fmt.Errorf("index key must be a string, got %T", key)
	}
	if _, seen := ix.entries[k]; !seen {
		ix.order = append(ix.order, k)
	}
	ix.entries[k] = value
	return nil
}

// Reduce rebuilds an index from its entry stream.
func (ix *Index) Reduce() (carbon.Recipe, error) {
	entries := make([]carbon.Entry, 0, len(ix.order))
	for _, k := range ix.order {
		entries = append(entries, carbon.Entry{Key: k, Value: ix.entries[k]})
	}
	return carbon.Recipe{
		Factory: carbon.Constructor(NewIndex),
		Entries: entries,
	}, nil
}

// Slotted splits its state between plain fields and attribute slots.
type Slotted struct {
	Name  string
	Owner *Node
	attrs map[string]any
	sets  int
}

// NewSlotted creates a Slotted value.
func NewSlotted(name string, owner *Node) *Slotted {
	return &Slotted{Name: name, Owner: owner, attrs: make(map[string]any)}
}

// Attr returns a slot value.
func (s *Slotted) Attr(name string) any { return s.attrs[name] }

// SetCount returns how many slots were assigned through SetAttr.
func (s *Slotted) SetCount() int { return s.sets }

// SetAttr implements carbon.AttrSetter.
func (s *Slotted) SetAttr(name string, value any) error {
	if s.attrs == nil {
		s.attrs = make(map[string]any)
	}
	s.attrs[name] = value
	s.sets++
	return nil
}

// Reduce describes a Slotted value as fields plus slots.
func (s *Slotted) Reduce() (carbon.Recipe, error) {
	slots := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		slots[k] = v
	}
	return carbon.Recipe{
		Factory: func(...any) (any, error) { return &Slotted{}, nil },
		State: carbon.SlotState{
			Fields: carbon.Fields{"Name": s.Name, "Owner": s.Owner},
			Slots:  slots,
		},
	}, nil
}

// Failing returns its error from every hook.
type Failing struct {
	Err error
}

// DeepCopy implements carbon.DeepCopyable.
func (f Failing) DeepCopy(_ *carbon.Memo) (any, error) {
	return nil, f.Err
}

// Singleton is shared by every copy.
type Singleton struct {
	ID string
}

// Reduce marks the value as its own copy.
func (s *Singleton) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{Shared: true}, nil
}
