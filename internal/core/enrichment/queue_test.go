package enrichment

import (
	"context"
	"testing"

	"nutrition-insight/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueAndConsume(t *testing.T) {
	q := NewQueue(2)
	defer q.Close()

	job := &Job{RunID: "run-1", RecordID: "r1"}
	require.NoError(t, q.Enqueue(context.Background(), job))

	select {
	case got := <-q.Jobs():
		assert.Equal(t, job, got)
	default:
		t.Fatal("expected a queued job")
	}
}

// 佇列滿時拒收而非阻塞呼叫端
func TestQueueFull(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, &Job{RunID: "run-1"}))

	err := q.Enqueue(ctx, &Job{RunID: "run-2"})
	assert.ErrorIs(t, err, common.ErrQueueFull)
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(2)
	q.Close()

	err := q.Enqueue(context.Background(), &Job{RunID: "run-1"})
	assert.ErrorIs(t, err, common.ErrQueueFull)
}

func TestQueueStatus(t *testing.T) {
	q := NewQueue(3)
	defer q.Close()

	require.NoError(t, q.Enqueue(context.Background(), &Job{RunID: "run-1"}))
	q.IncrementProcessed()

	status := q.Status()
	assert.Equal(t, 1, status.Pending)
	assert.Equal(t, 3, status.Capacity)
	assert.Equal(t, int64(1), status.Processed)
}

func TestChannelNotifierDropsWhenFull(t *testing.T) {
	n := NewChannelNotifier(1)
	ctx := context.Background()

	// 超出容量的事件被丟棄，不會阻塞
	n.NotifyEnriched(ctx, Event{RecordID: "r1"})
	n.NotifyEnriched(ctx, Event{RecordID: "r2"})

	event := <-n.Events()
	assert.Equal(t, "r1", event.RecordID)

	select {
	case extra := <-n.Events():
		t.Fatalf("unexpected extra event: %v", extra)
	default:
	}
}
