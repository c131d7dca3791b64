package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	calendarhandlers "ratepilot/internal/app/handlers/calendar"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/domain/shared/errs"
	"ratepilot/internal/infra/storage/memory"
)

type partitionClaim struct {
	sarama.ConsumerGroupClaim
	messages <-chan *sarama.ConsumerMessage
}

func (c partitionClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type markingSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *markingSession) Context() context.Context { return s.ctx }

func (s *markingSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *markingSession) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type flakyHandler struct {
	mu       sync.Mutex
	failures map[int64]int
	seen     []int64
}

func (h *flakyHandler) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, msg.Offset)
	if h.failures[msg.Offset] > 0 {
		h.failures[msg.Offset]--
		return errors.New("platform timeout")
	}
	return nil
}

func (h *flakyHandler) Seen() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.seen...)
}

// startClaim yields values on a mock partition and consumes it in the
// background. The returned channel closes when ConsumeClaim returns.
func startClaim(t *testing.T, sess *markingSession, handler MessageHandler, values ...string) (sarama.PartitionConsumer, <-chan struct{}) {
	t.Helper()
	consumer := mocks.NewConsumer(t, nil)
	expected := consumer.ExpectConsumePartition("ratepilot.calendar.sync", 0, sarama.OffsetOldest)
	for _, v := range values {
		expected.YieldMessage(&sarama.ConsumerMessage{Value: []byte(v)})
	}
	pc, err := consumer.ConsumePartition("ratepilot.calendar.sync", 0, sarama.OffsetOldest)
	require.NoError(t, err)

	h := consumerGroupHandler{handler: handler, backoff: []time.Duration{time.Millisecond}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, h.ConsumeClaim(sess, partitionClaim{messages: pc.Messages()}))
	}()
	return pc, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ConsumeClaim did not return")
	}
}

func TestConsumeClaimRetriesBeforeMarking(t *testing.T) {
	sess := &markingSession{ctx: context.Background()}
	handler := &flakyHandler{failures: map[int64]int{0: 2}}
	pc, done := startClaim(t, sess, handler, `{"property_id":"p1"}`, `{"property_id":"p2"}`)

	require.Eventually(t, func() bool { return len(sess.Marked()) == 2 }, time.Second, time.Millisecond)
	require.NoError(t, pc.Close())
	waitDone(t, done)

	assert.Equal(t, []int64{0, 1}, sess.Marked())
	assert.Equal(t, []int64{0, 0, 0, 1}, handler.Seen())
}

func TestConsumeClaimLeavesFailedMessageUnmarked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &markingSession{ctx: ctx}
	handler := &flakyHandler{failures: map[int64]int{0: 1 << 20}}
	pc, done := startClaim(t, sess, handler, `{"property_id":"p1"}`, `{"property_id":"p2"}`)

	require.Eventually(t, func() bool { return len(handler.Seen()) >= 2 }, time.Second, time.Millisecond)
	cancel()
	waitDone(t, done)
	require.NoError(t, pc.Close())

	assert.Empty(t, sess.Marked())
	for _, offset := range handler.Seen() {
		assert.Zero(t, offset, "later messages wait behind the failing one")
	}
}

func TestSyncTriggerRedeliveryRunsCommandAgain(t *testing.T) {
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.Register[calendarhandlers.SyncCalendarsCommand, dto.SyncResult](bus, "calendar.sync",
		commands.HandlerFunc[calendarhandlers.SyncCalendarsCommand, dto.SyncResult](
			func(_ context.Context, cmd calendarhandlers.SyncCalendarsCommand) (dto.SyncResult, error) {
				calls++
				if calls == 1 {
					return dto.SyncResult{}, errs.Unavailable("airbnb", errors.New("timeout"))
				}
				return dto.SyncResult{PropertyID: cmd.PropertyID, TotalPlatforms: 1, SuccessfulSyncs: 1}, nil
			}))
	store := memory.NewIdempotencyStore(time.Hour)
	trigger := &SyncTriggerHandler{Bus: middleware.ChainCommands(bus, middleware.Idempotency(store, nil, nil))}

	sess := &markingSession{ctx: context.Background()}
	pc, done := startClaim(t, sess, trigger, `{"id":"evt-9","property_id":"p1","platforms":["airbnb"]}`)
	require.Eventually(t, func() bool { return len(sess.Marked()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, pc.Close())
	waitDone(t, done)
	assert.Equal(t, 2, calls)

	msg := &sarama.ConsumerMessage{Value: []byte(`{"id":"evt-9","property_id":"p1","platforms":["airbnb"]}`)}
	require.NoError(t, trigger.Handle(context.Background(), msg))
	assert.Equal(t, 2, calls, "a handled event replays from the store")
}
