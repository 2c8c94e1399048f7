package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps aliases to lazily built, memoized values.
//
// Registration never builds anything: each alias gets a fresh Handle that
// runs its factory on first use. Aliases registered with RegisterImmutable
// are locked and every later registration for them is rejected.
//
// A Container is safe for concurrent use.
type Container struct {
	mu sync.RWMutex

	// alias → handle
	entries map[string]*Handle

	// aliases that reject re-registration
	locked map[string]struct{}

	logger *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for registration and materialization
// events. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		entries: make(map[string]*Handle),
		locked:  make(map[string]struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register stores factory under alias, replacing any earlier registration.
//
// It returns false with a nil error when alias is locked; the existing
// registration is kept. Handles obtained before an overwrite keep pointing
// at the old registration.
//
//	ok, err := c.Register("mailer", func() any {
//	    h, _ := c.Get("config")
//	    return mail.New(h.Value().(*config.Config))
//	})
func (c *Container) Register(alias string, factory Factory) (bool, error) {
	return c.register(alias, factory, false)
}

// RegisterImmutable is Register followed by locking alias: no later
// registration for it succeeds.
//
//	c.RegisterImmutable("config", func() any { return cfg })
func (c *Container) RegisterImmutable(alias string, factory Factory) (bool, error) {
	return c.register(alias, factory, true)
}

// RegisterFunc registers an arbitrary Go function as a factory. fn must take
// no parameters and return exactly one value.
//
//	c.RegisterFunc("clock", func() *Clock { return &Clock{} }, false)
func (c *Container) RegisterFunc(alias string, fn any, immutable bool) (bool, error) {
	factory, err := FactoryOf(fn)
	if err != nil {
		return false, errors.Wrapf(err, "register %q", alias)
	}
	return c.register(alias, factory, immutable)
}

// register is the shared registration path. The lock check and the store
// happen under one write lock.
func (c *Container) register(alias string, factory Factory, immutable bool) (bool, error) {
	if alias == "" {
		return false, errors.WithStack(ErrInvalidAlias)
	}
	if factory == nil {
		return false, errors.Wrapf(ErrInvalidFactory, "register %q: nil factory", alias)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.locked[alias]; ok {
		c.logger.Warn("registration rejected: alias is locked", zap.String("alias", alias))
		return false, nil
	}

	_, replaced := c.entries[alias]
	c.entries[alias] = newHandle(alias, factory, c.logger)
	if immutable {
		c.locked[alias] = struct{}{}
	}

	c.logger.Debug("registered",
		zap.String("alias", alias),
		zap.Bool("immutable", immutable),
		zap.Bool("replaced", replaced),
	)
	return true, nil
}

// FactoryOf converts fn into a Factory. It accepts a Factory, a func() any,
// or any function with zero parameters and one result.
func FactoryOf(fn any) (Factory, error) {
	switch f := fn.(type) {
	case Factory:
		if f == nil {
			return nil, errors.Wrap(ErrInvalidFactory, "nil factory")
		}
		return f, nil
	case func() any:
		if f == nil {
			return nil, errors.Wrap(ErrInvalidFactory, "nil factory")
		}
		return f, nil
	}

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, errors.Wrapf(ErrInvalidFactory, "%T is not a function", fn)
	}
	if v.IsNil() {
		return nil, errors.Wrap(ErrInvalidFactory, "nil factory")
	}

	t := v.Type()
	if t.NumIn() != 0 {
		return nil, errors.Wrapf(ErrInvalidFactory, "%s takes %d parameters, want 0", t, t.NumIn())
	}
	if t.NumOut() != 1 {
		return nil, errors.Wrapf(ErrInvalidFactory, "%s returns %d values, want 1", t, t.NumOut())
	}

	return func() any { return v.Call(nil)[0].Interface() }, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the handle registered under alias. The bool is false when
// nothing is registered; Get never builds the value itself.
//
//	h, ok := c.Get("greeter")
//	if !ok { ... }
//	out, err := h.Invoke("Hello")
func (c *Container) Get(alias string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[alias]
	return h, ok
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether alias has a registration.
func (c *Container) Bound(alias string) bool {
	_, ok := c.Get(alias)
	return ok
}

// Locked reports whether alias rejects further registrations.
func (c *Container) Locked(alias string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.locked[alias]
	return ok
}

// Resolved reports whether the current handle for alias has been built.
func (c *Container) Resolved(alias string) bool {
	h, ok := c.Get(alias)
	return ok && h.Initialized()
}

// Aliases returns all registered aliases in sorted order.
func (c *Container) Aliases() []string {
	c.mu.RLock()
	aliases := lo.Keys(c.entries)
	c.mu.RUnlock()

	slices.Sort(aliases)
	return aliases
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve looks up alias, materializes it and asserts the value to T.
//
//	cfg, err := container.Resolve[*config.Config](c, "config")
func Resolve[T any](c *Container, alias string) (T, error) {
	h, ok := c.Get(alias)
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrAliasAbsent, "%q", alias)
	}
	typed, err := As[T](h)
	if err != nil {
		return typed, errors.Wrapf(err, "resolve %q", alias)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Meant for bootstrap
// code where a missing core service is a programming error.
func MustResolve[T any](c *Container, alias string) T {
	typed, err := Resolve[T](c, alias)
	if err != nil {
		panic(fmt.Sprintf("container: %v", err))
	}
	return typed
}
