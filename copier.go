package carbon

import (
	"context"
	"errors"
	"reflect"
	"time"
)

// Copier makes shallow and deep copies using one registry.
//
// A Copier is safe for concurrent use: each deep copy owns its Memo and the
// registry guards its resolution cache.
type Copier struct {
	registry   *Registry
	unexported bool
	signals    bool
}

// Option configures a Copier.
type Option func(*Copier)

// WithRegistry sets the registry used for dispatch.
// By default each copier gets its own NewRegistry().
func WithRegistry(r *Registry) Option {
	return func(c *Copier) {
		c.registry = r
	}
}

// WithUnexported makes the default struct reducer copy unexported fields.
// Without it unexported fields are shared between the original and the copy.
func WithUnexported() Option {
	return func(c *Copier) {
		c.unexported = true
	}
}

// WithSignals enables or disables capitan signals. Signals are on by default.
func WithSignals(enabled bool) Option {
	return func(c *Copier) {
		c.signals = enabled
	}
}

// New creates a Copier.
func New(opts ...Option) *Copier {
	c := &Copier{signals: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	if c.signals {
		emitCopierCreated(context.Background(), c.registry.Len())
	}
	return c
}

// Registry returns the registry used for dispatch.
func (c *Copier) Registry() *Registry {
	return c.registry
}

// NewMemo starts a deep copy pass. Copies made through one memo share their
// aliasing; separate memos never do.
func (c *Copier) NewMemo() *Memo {
	return newMemo(c)
}

// Copy returns a shallow copy of v.
func (c *Copier) Copy(v any) (any, error) {
	y, err := c.shallowValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return valueInterface(y), nil
}

// DeepCopy returns a deep copy of v.
func (c *Copier) DeepCopy(v any) (any, error) {
	y, err := c.deepValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return valueInterface(y), nil
}

// shallow copies x without recursion.
func (c *Copier) shallow(x reflect.Value) (reflect.Value, error) {
	if !x.IsValid() || isNilRef(x) {
		return x, nil
	}
	s := c.registry.resolve(x.Type())
	if s.atomic {
		return x, nil
	}
	return s.shallow(c, x)
}

// shallowValue wraps shallow with timing and signals.
func (c *Copier) shallowValue(x reflect.Value) (reflect.Value, error) {
	if !c.signals {
		return c.shallow(x)
	}
	start := time.Now()
	y, err := c.shallow(x)
	c.report(ModeShallow, x, time.Since(start), 0, err)
	return y, err
}

// deepValue runs a deep copy pass with a fresh memo.
func (c *Copier) deepValue(x reflect.Value) (reflect.Value, error) {
	m := newMemo(c)
	if !c.signals {
		return m.deep(x)
	}
	start := time.Now()
	y, err := m.deep(x)
	c.report(ModeDeep, x, time.Since(start), m.Len(), err)
	return y, err
}

func (c *Copier) report(mode Mode, x reflect.Value, duration time.Duration, memoSize int, err error) {
	ctx := context.Background()
	name := "nil"
	if x.IsValid() {
		name = typeName(x.Type())
	}

	var uerr *UncopyableError
	if errors.As(err, &uerr) {
		emitUncopyable(ctx, typeName(uerr.Type), mode, err)
	}

	if mode == ModeShallow {
		emitShallowComplete(ctx, name, duration, err)
		return
	}
	emitDeepComplete(ctx, name, duration, memoSize, err)
}
