package container

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ── Factory ───────────────────────────────────────────────────────────────────

// Factory builds the value stored behind an alias. It takes no arguments;
// factories that need other aliases close over the container and call Get
// from inside their body, which only runs on first use.
type Factory func() any

// ── Handle ────────────────────────────────────────────────────────────────────

// Handle defers a Factory until the value is first needed and memoizes the
// result. A Handle moves from uninitialized to initialized exactly once.
//
//	h, _ := container.NewHandle(func() any { return &Mailer{} })
//	h.Initialized()                 // false
//	out, err := h.Invoke("Send", "hi")
//	h.Initialized()                 // true
//
// A factory must not touch its own handle: the construction lock is held
// while it runs.
type Handle struct {
	mu      sync.Mutex
	factory Factory
	value   any
	built   bool

	alias  string
	logger *zap.Logger
}

// NewHandle wraps factory in an uninitialized Handle.
func NewHandle(factory Factory) (*Handle, error) {
	if factory == nil {
		return nil, errors.Wrap(ErrInvalidFactory, "nil factory")
	}
	return newHandle("", factory, zap.NewNop()), nil
}

func newHandle(alias string, factory Factory, logger *zap.Logger) *Handle {
	return &Handle{factory: factory, alias: alias, logger: logger}
}

// Value returns the memoized value, calling the factory on first use.
// Concurrent first callers block until the single construction finishes.
func (h *Handle) Value() any {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.built {
		h.value = h.factory()
		h.built = true
		h.factory = nil
		h.logger.Debug("materialized",
			zap.String("alias", h.alias),
			zap.String("type", typeName(h.value)),
		)
	}
	return h.value
}

// Initialized reports whether the factory has already run.
func (h *Handle) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.built
}

// Invoke materializes the value and calls its exported method named
// operation with args. The method's results are returned as-is, including
// any error it returns as its own result.
//
//	out, err := h.Invoke("Hello")
//	greeting := out[0].(string)
func (h *Handle) Invoke(operation string, args ...any) ([]any, error) {
	target := reflect.ValueOf(h.Value())
	if !target.IsValid() {
		return nil, errors.Wrapf(ErrUnsupportedOperation, "%s on nil value", operation)
	}

	method := target.MethodByName(operation)
	if !method.IsValid() {
		return nil, errors.Wrapf(ErrUnsupportedOperation, "%s on %s", operation, target.Type())
	}
	// A value receiver cannot be called through a nil pointer.
	if target.Kind() == reflect.Pointer && target.IsNil() {
		if _, byValue := target.Type().Elem().MethodByName(operation); byValue {
			return nil, errors.Wrapf(ErrUnsupportedOperation, "%s on nil %s", operation, target.Type())
		}
	}

	in, err := callArgs(method.Type(), args)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", target.Type(), operation)
	}

	out := method.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// callArgs converts args into reflect values matching the signature of fn.
func callArgs(fn reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := fn.NumIn()
	if fn.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, errors.Wrapf(ErrInvalidArguments, "want at least %d, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, errors.Wrapf(ErrInvalidArguments, "want %d, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var param reflect.Type
		if i < fixed {
			param = fn.In(i)
		} else {
			param = fn.In(fixed).Elem()
		}

		if arg == nil {
			if !nillable(param.Kind()) {
				return nil, errors.Wrapf(ErrInvalidArguments, "argument %d: nil for %s", i, param)
			}
			in[i] = reflect.Zero(param)
			continue
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(param) {
			return nil, errors.Wrapf(ErrInvalidArguments, "argument %d: %s is not assignable to %s", i, v.Type(), param)
		}
		in[i] = v
	}
	return in, nil
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	}
	return false
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// As materializes h and asserts the value to T.
//
//	greeter, err := container.As[*Greeter](h)
func As[T any](h *Handle) (T, error) {
	v := h.Value()
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrTypeMismatch, "want %T, got %s", zero, typeName(v))
	}
	return typed, nil
}

// ── Lazy[T] ───────────────────────────────────────────────────────────────────

// Lazy is the typed counterpart of Handle for callers that know the value's
// type up front and want to call its methods directly.
//
//	db := container.NewLazy(func() *sql.DB { return openDB() })
//	db.Get().Ping()
type Lazy[T any] struct {
	handle *Handle
}

// NewLazy wraps factory. It panics if factory is nil.
func NewLazy[T any](factory func() T) *Lazy[T] {
	if factory == nil {
		panic(errors.Wrap(ErrInvalidFactory, "nil factory"))
	}
	return &Lazy[T]{handle: newHandle("", func() any { return factory() }, zap.NewNop())}
}

// Get returns the memoized value, building it on first call.
func (l *Lazy[T]) Get() T {
	v, _ := l.handle.Value().(T)
	return v
}

// Initialized reports whether the factory has already run.
func (l *Lazy[T]) Initialized() bool { return l.handle.Initialized() }
