package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	calendarhandlers "ratepilot/internal/app/handlers/calendar"
	"ratepilot/internal/domain/property"
)

func TestProducerPublishes(t *testing.T) {
	sp := mocks.NewSyncProducer(t, sarama.NewConfig())
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"ok":true}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	p := NewProducerFrom(sp)
	require.NoError(t, p.Publish(context.Background(), "ratepilot.calendar.events.v1", "p1", []byte(`{"ok":true}`), map[string]string{"b": "2", "a": "1"}))
	require.NoError(t, p.Close())
}

func TestProducerStopsOnCancelledContext(t *testing.T) {
	sp := mocks.NewSyncProducer(t, sarama.NewConfig())
	p := NewProducerFrom(sp)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", []byte(`{}`), nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewMessageSortsHeaders(t *testing.T) {
	msg := newMessage("t", "", []byte("x"), map[string]string{"z": "1", "a": "2"})
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "a", string(msg.Headers[0].Key))
	assert.Nil(t, msg.Key)
}

type recordingBus struct {
	cmds []commands.Command
	err  error
}

func (b *recordingBus) Dispatch(_ context.Context, cmd commands.Command) (any, error) {
	b.cmds = append(b.cmds, cmd)
	if b.err != nil {
		return nil, b.err
	}
	return dto.SyncResult{PropertyID: "p1", TotalPlatforms: 1, SuccessfulSyncs: 1}, nil
}

func TestSyncTriggerDispatchesCommand(t *testing.T) {
	bus := &recordingBus{}
	h := &SyncTriggerHandler{Bus: bus}
	msg := &sarama.ConsumerMessage{Value: []byte(`{"id":"evt-1","data":{"property_id":"p1","platforms":["airbnb"]}}`)}

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, bus.cmds, 1)
	cmd := bus.cmds[0].(calendarhandlers.SyncCalendarsCommand)
	assert.Equal(t, "p1", cmd.PropertyID)
	assert.Equal(t, []string{"airbnb"}, cmd.Platforms)
	assert.Equal(t, "sync-trigger:evt-1", cmd.IdempotencyKey())
}

func TestSyncTriggerFallsBackToOffsetKey(t *testing.T) {
	bus := &recordingBus{}
	h := &SyncTriggerHandler{Bus: bus}
	msg := &sarama.ConsumerMessage{Topic: "sync", Partition: 2, Offset: 40, Value: []byte(`{"property_id":"p1"}`)}

	require.NoError(t, h.Handle(context.Background(), msg))
	cmd := bus.cmds[0].(calendarhandlers.SyncCalendarsCommand)
	assert.Equal(t, "sync-trigger:sync/2/40", cmd.IdempotencyKey())
}

func TestSyncTriggerDropsMalformed(t *testing.T) {
	bus := &recordingBus{}
	h := &SyncTriggerHandler{Bus: bus}
	assert.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`not json`)}))
	assert.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{"platforms":["vrbo"]}`)}))
	assert.Empty(t, bus.cmds)
}

func TestSyncTriggerErrors(t *testing.T) {
	msg := &sarama.ConsumerMessage{Value: []byte(`{"property_id":"p1"}`)}

	notFound := &SyncTriggerHandler{Bus: &recordingBus{err: property.ErrNotFound}}
	assert.NoError(t, notFound.Handle(context.Background(), msg))

	down := errors.New("store down")
	failing := &SyncTriggerHandler{Bus: &recordingBus{err: down}}
	assert.ErrorIs(t, failing.Handle(context.Background(), msg), down)
}
