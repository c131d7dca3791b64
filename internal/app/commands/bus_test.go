package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{ Value string }

func (echoCommand) Key() string { return "test.echo" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	Register[echoCommand, string](bus, "test.echo", HandlerFunc[echoCommand, string](func(_ context.Context, c echoCommand) (string, error) {
		return "echo:" + c.Value, nil
	}))

	out, err := Dispatch[echoCommand, string](context.Background(), bus, echoCommand{Value: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)

	_, err = Dispatch[echoCommand, int](context.Background(), bus, echoCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	assert.Equal(t, []string{"test.echo"}, bus.Keys())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[echoCommand, string](func(context.Context, echoCommand) (string, error) { return "", nil })
	Register[echoCommand, string](bus, "test.echo", h)
	assert.Panics(t, func() { Register[echoCommand, string](bus, "test.echo", h) })
}
