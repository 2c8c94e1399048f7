package container_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-lazyioc/framework/container"
)

// ── stubs ─────────────────────────────────────────────────────────────────────

type counter struct {
	n int
}

func (c *counter) Add(delta int) int { c.n += delta; return c.n }
func (c *counter) Count() int        { return c.n }

func (c *counter) Join(sep string, parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

func (c *counter) Fail() error { return errors.New("boom") }

func (c *counter) Describe(s fmt.Stringer) string {
	if s == nil {
		return "nothing"
	}
	return s.String()
}

// ── NewHandle ─────────────────────────────────────────────────────────────────

func TestNewHandle_NilFactory(t *testing.T) {
	h, err := container.NewHandle(nil)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, container.ErrInvalidFactory)
}

func TestHandle_NotBuiltOnCreation(t *testing.T) {
	calls := 0
	h, err := container.NewHandle(func() any { calls++; return &counter{} })
	require.NoError(t, err)

	assert.False(t, h.Initialized())
	assert.Equal(t, 0, calls)
}

// ── Lazy-once ─────────────────────────────────────────────────────────────────

func TestHandle_Invoke_FactoryCalledOnce(t *testing.T) {
	calls := 0
	h, err := container.NewHandle(func() any { calls++; return &counter{} })
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := h.Invoke("Count")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, calls)
	assert.True(t, h.Initialized())
}

func TestHandle_Value_ConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	h, err := container.NewHandle(func() any {
		calls.Add(1)
		return &counter{}
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	values := make([]any, 32)
	for i := range values {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i] = h.Value()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range values {
		assert.Same(t, values[0], v)
	}
}

// ── Memoization identity ──────────────────────────────────────────────────────

func TestHandle_Invoke_StateSharedAcrossCalls(t *testing.T) {
	h, err := container.NewHandle(func() any { return &counter{} })
	require.NoError(t, err)

	_, err = h.Invoke("Add", 3)
	require.NoError(t, err)
	_, err = h.Invoke("Add", 4)
	require.NoError(t, err)

	out, err := h.Invoke("Count")
	require.NoError(t, err)
	assert.Equal(t, []any{7}, out)
}

// ── Forwarding ────────────────────────────────────────────────────────────────

func TestHandle_Invoke_Variadic(t *testing.T) {
	h, _ := container.NewHandle(func() any { return &counter{} })

	out, err := h.Invoke("Join", "-", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, "a-b-c", out[0])

	out, err = h.Invoke("Join", ",")
	require.NoError(t, err)
	assert.Equal(t, "", out[0])
}

func TestHandle_Invoke_MethodErrorReturnedAsResult(t *testing.T) {
	h, _ := container.NewHandle(func() any { return &counter{} })

	out, err := h.Invoke("Fail")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.EqualError(t, out[0].(error), "boom")
}

func TestHandle_Invoke_NilArgumentForInterface(t *testing.T) {
	h, _ := container.NewHandle(func() any { return &counter{} })

	out, err := h.Invoke("Describe", nil)
	require.NoError(t, err)
	assert.Equal(t, "nothing", out[0])
}

func TestHandle_Invoke_UnsupportedOperation(t *testing.T) {
	calls := 0
	h, _ := container.NewHandle(func() any { calls++; return &counter{} })

	_, err := h.Invoke("Missing")
	assert.ErrorIs(t, err, container.ErrUnsupportedOperation)
	assert.Equal(t, 1, calls, "value is still materialized")
}

func TestHandle_Invoke_NilValue(t *testing.T) {
	h, _ := container.NewHandle(func() any { return nil })

	_, err := h.Invoke("Anything")
	assert.ErrorIs(t, err, container.ErrUnsupportedOperation)
}

type valueReceiver struct{}

func (valueReceiver) Ping() string { return "pong" }

type pointerReceiver struct{}

func (p *pointerReceiver) IsNil() bool { return p == nil }

func TestHandle_Invoke_NilPointerValueReceiver(t *testing.T) {
	h, _ := container.NewHandle(func() any { return (*valueReceiver)(nil) })

	var err error
	assert.NotPanics(t, func() { _, err = h.Invoke("Ping") })
	assert.ErrorIs(t, err, container.ErrUnsupportedOperation)
}

func TestHandle_Invoke_NilPointerPointerReceiver(t *testing.T) {
	h, _ := container.NewHandle(func() any { return (*pointerReceiver)(nil) })

	out, err := h.Invoke("IsNil")
	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)
}

func TestHandle_Invoke_InvalidArguments(t *testing.T) {
	h, _ := container.NewHandle(func() any { return &counter{} })

	tests := []struct {
		name string
		op   string
		args []any
	}{
		{"too few", "Add", nil},
		{"too many", "Count", []any{1}},
		{"wrong type", "Add", []any{"one"}},
		{"nil for int", "Add", []any{nil}},
		{"variadic missing fixed", "Join", nil},
		{"variadic wrong element", "Join", []any{"-", 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Invoke(tt.op, tt.args...)
			assert.ErrorIs(t, err, container.ErrInvalidArguments)
		})
	}
}

// ── As ────────────────────────────────────────────────────────────────────────

func TestAs(t *testing.T) {
	h, _ := container.NewHandle(func() any { return &counter{n: 2} })

	c, err := container.As[*counter](h)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	_, err = container.As[string](h)
	assert.ErrorIs(t, err, container.ErrTypeMismatch)
}

// ── Lazy[T] ───────────────────────────────────────────────────────────────────

func TestLazy_Get(t *testing.T) {
	calls := 0
	l := container.NewLazy(func() *counter { calls++; return &counter{} })

	assert.False(t, l.Initialized())
	l.Get().Add(1)
	l.Get().Add(1)

	assert.Equal(t, 2, l.Get().Count())
	assert.Equal(t, 1, calls)
	assert.True(t, l.Initialized())
}

func TestLazy_NilInterfaceValue(t *testing.T) {
	l := container.NewLazy(func() fmt.Stringer { return nil })
	assert.Nil(t, l.Get())
}

func TestNewLazy_NilFactoryPanics(t *testing.T) {
	assert.Panics(t, func() { container.NewLazy[int](nil) })
}
