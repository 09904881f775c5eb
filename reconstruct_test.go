package carbon_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/carbon"
	carbontest "github.com/zoobzio/carbon/testing"
)

// selfList rebuilds itself from an item stream with no Appender.
type selfList []any

func (l selfList) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: carbon.Constructor(func() selfList { return nil }),
		Items:   []any(l),
	}, nil
}

// headedList keeps its first element in the factory result.
type headedList []any

func (l headedList) Reduce() (carbon.Recipe, error) {
	head := l[0]
	return carbon.Recipe{
		Factory: func(args ...any) (any, error) { return headedList{args[0]}, nil },
		Args:    []any{head},
		Items:   []any(l[1:]),
	}, nil
}

func TestReconstruct_SelfReferentialItems(t *testing.T) {
	l := make(selfList, 2)
	l[0] = l
	l[1] = "tail"

	y, err := carbon.CloneUsing(newCopier(), l)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if len(y) != 2 {
		t.Fatalf("len = %d, want 2", len(y))
	}
	inner, ok := y[0].(selfList)
	if !ok {
		t.Fatalf("y[0] has type %T, want selfList", y[0])
	}
	if len(inner) != 2 || &inner[0] != &y[0] {
		t.Error("self reference in items should point at the rebuilt list")
	}
	if &y[0] == &l[0] {
		t.Error("the rebuilt list should not share the source backing array")
	}
	if y[1] != "tail" {
		t.Errorf("y[1] = %v, want tail", y[1])
	}
}

func TestReconstruct_ItemsAfterFactoryElements(t *testing.T) {
	l := make(headedList, 3)
	l[0] = "head"
	l[1] = []int{1}
	l[2] = l

	y, err := carbon.CloneUsing(newCopier(), l)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if len(y) != 3 || y[0] != "head" {
		t.Fatalf("Clone() = %v, want head followed by two items", y)
	}
	if &y[1].([]int)[0] == &l[1].([]int)[0] {
		t.Error("items should be deep-copied")
	}
	if back, ok := y[2].(headedList); !ok || &back[0] != &y[0] {
		t.Error("self reference in items should point at the rebuilt list")
	}
}

// attrRecorder receives assignments through SetAttr.
type attrRecorder struct {
	Name  string
	calls []string
}

func (a *attrRecorder) SetAttr(name string, value any) error {
	a.calls = append(a.calls, name)
	if name == "Name" {
		a.Name, _ = value.(string)
	}
	return nil
}

func (a *attrRecorder) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: carbon.Constructor(func() *attrRecorder { return &attrRecorder{} }),
		State: []carbon.Assignment{
			{Name: "Name", Value: a.Name},
			{Name: "extra", Value: 1},
		},
	}, nil
}

// fieldTarget has no SetAttr, so assignments land on its fields.
type fieldTarget struct {
	Name  string
	Count int
}

func (f *fieldTarget) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: carbon.Constructor(func() *fieldTarget { return &fieldTarget{} }),
		State: []carbon.Assignment{
			{Name: "Count", Value: f.Count},
			{Name: "Name", Value: f.Name},
		},
	}, nil
}

// missingTarget assigns a field it does not have.
type missingTarget struct{ Name string }

func (f *missingTarget) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: carbon.Constructor(func() *missingTarget { return &missingTarget{} }),
		State:   []carbon.Assignment{{Name: "Absent", Value: 1}},
	}, nil
}

func TestReconstruct_Assignments(t *testing.T) {
	t.Run("through SetAttr", func(t *testing.T) {
		y, err := carbon.CloneUsing(newCopier(), &attrRecorder{Name: "a"})
		if err != nil {
			t.Fatalf("Clone() error: %v", err)
		}
		if y.Name != "a" {
			t.Errorf("Name = %q, want a", y.Name)
		}
		if len(y.calls) != 2 || y.calls[0] != "Name" || y.calls[1] != "extra" {
			t.Errorf("SetAttr calls = %v, want [Name extra]", y.calls)
		}
	})

	t.Run("direct fields", func(t *testing.T) {
		y, err := carbon.CloneUsing(newCopier(), &fieldTarget{Name: "f", Count: 4})
		if err != nil {
			t.Fatalf("Clone() error: %v", err)
		}
		if y.Name != "f" || y.Count != 4 {
			t.Errorf("Clone() = %+v, want fields assigned", y)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := carbon.CloneUsing(newCopier(), &missingTarget{})
		if !errors.Is(err, carbon.ErrNoField) {
			t.Errorf("Clone() error = %v, want ErrNoField", err)
		}
	})
}

func TestCopy_Reconstruction(t *testing.T) {
	inner := []int{1}
	bag := carbontest.NewBag("b", inner)

	out, err := newCopier().Copy(bag)
	if err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	y := out.(*carbontest.Bag)
	if y == bag || y.Label != "b" {
		t.Fatalf("Copy() = %+v, want new bag labelled b", y)
	}
	if len(y.Items()) != 1 || &y.Items()[0].([]int)[0] != &inner[0] {
		t.Error("shallow reconstruction should share items")
	}
}

func TestCopy_RegisteredReducer(t *testing.T) {
	r := carbon.NewRegistry()
	calls := 0
	carbon.Reduce(r, func(p point) (carbon.Recipe, error) {
		calls++
		return carbon.Recipe{
			Factory: func(args ...any) (any, error) {
				return point{X: args[0].(int), tag: args[1].(*string)}, nil
			},
			Args: []any{p.X, p.tag},
		}, nil
	})

	tag := "t"
	out, err := newCopier(carbon.WithRegistry(r)).Copy(point{X: 3, tag: &tag})
	if err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	y := out.(point)
	if calls != 1 || y.X != 3 {
		t.Errorf("Copy() = %+v (calls %d), want reducer-built point", y, calls)
	}
	if y.tag != &tag {
		t.Error("shallow reconstruction should pass args through uncopied")
	}
}

type arrayBox struct {
	A [1]any
}

func TestDeepCopy_ArrayCycles(t *testing.T) {
	t.Run("pointer to own array", func(t *testing.T) {
		p := &[2]any{}
		p[0] = p

		out, err := newCopier().DeepCopy(p)
		if err != nil {
			t.Fatalf("DeepCopy() error: %v", err)
		}
		q := out.(*[2]any)
		if q == p {
			t.Fatal("DeepCopy() should make a new array")
		}
		if q[0] != q {
			t.Error("the array's self pointer should point at the copy")
		}
	})

	t.Run("array reached again through its element", func(t *testing.T) {
		b := &arrayBox{}
		b.A[0] = &b.A

		out, err := newCopier().DeepCopy(b)
		if err != nil {
			t.Fatalf("DeepCopy() error: %v", err)
		}
		got := out.(*arrayBox)
		inner, ok := got.A[0].(*[1]any)
		if !ok {
			t.Fatalf("A[0] has type %T, want *[1]any", got.A[0])
		}
		if inner == &b.A {
			t.Error("the element pointer should be copied")
		}
		if (*inner)[0] != inner {
			t.Error("the copied array should refer to its own copy")
		}
	})
}
