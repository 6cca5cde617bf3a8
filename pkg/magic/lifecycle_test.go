package magic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/magic/pkg/errors"
)

type panicRecorder struct {
	quiet
	panics []*errors.PanicError
}

func (p *panicRecorder) HandlePanic(err *errors.PanicError) {
	p.panics = append(p.panics, err)
}

func TestLifecycleGetOrCreate(t *testing.T) {
	var l Lifecycle
	creates := 0
	create := func() (any, error) {
		creates++
		return creates, nil
	}

	v, created, err := l.GetOrCreate("a", create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, v)
	assert.True(t, l.Live())
	assert.Equal(t, "a", l.Key())

	v, created, err = l.GetOrCreate("a", create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, v)

	v, created, err = l.GetOrCreate("b", create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, v)
}

func TestLifecycleDisposesInReverseOrder(t *testing.T) {
	var l Lifecycle
	var log []string
	_, _, err := l.GetOrCreate(1, func() (any, error) { return "x", nil })
	require.NoError(t, err)
	l.OnDispose(func() { log = append(log, "first") })
	l.OnDispose(func() { log = append(log, "second") })
	l.OnDispose(nil)

	_, _, err = l.GetOrCreate(2, func() (any, error) { return "y", nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, log)

	l.Dispose()
	assert.False(t, l.Live())
	assert.Nil(t, l.Key())
	assert.Equal(t, []string{"second", "first"}, log, "disposers run once")
}

func TestLifecycleCreateError(t *testing.T) {
	var l Lifecycle
	_, _, err := l.GetOrCreate("a", func() (any, error) { return nil, fmt.Errorf("nope") })
	require.Error(t, err)
	assert.False(t, l.Live())

	disposed := false
	_, _, err = l.GetOrCreate("a", func() (any, error) { return 1, nil })
	require.NoError(t, err)
	l.OnDispose(func() { disposed = true })
	_, _, err = l.GetOrCreate("b", func() (any, error) { return nil, fmt.Errorf("nope") })
	require.Error(t, err)
	assert.True(t, disposed, "the previous value is disposed before create runs")
}

func TestLifecyclePanickingDisposer(t *testing.T) {
	handler := &panicRecorder{}
	errors.SetHandler(handler)
	t.Cleanup(func() { errors.SetHandler(nil) })

	var l Lifecycle
	ran := false
	_, _, _ = l.GetOrCreate("a", func() (any, error) { return 1, nil })
	l.OnDispose(func() { ran = true })
	l.OnDispose(func() { panic("disposer failed") })
	l.Dispose()

	assert.True(t, ran)
	require.Len(t, handler.panics, 1)
	assert.Equal(t, "magic.Lifecycle.Dispose", handler.panics[0].Op)
	assert.Equal(t, "disposer failed", handler.panics[0].Value)
}
