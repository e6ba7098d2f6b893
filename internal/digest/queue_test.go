package digest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goalmates-app/goalmates-backend/pkg/config"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := NewQueue(logger.New(logger.Options{ServiceName: "test"}), nil, config.DigestConfig{})
	require.NoError(t, err)
	return q
}

func TestQueueProcessesJobsInOrder(t *testing.T) {
	q := newTestQueue(t)

	var mu sync.Mutex
	var seen [][]uuid.UUID
	require.NoError(t, q.RegisterProcessor(func(_ context.Context, ids []uuid.UUID) error {
		mu.Lock()
		seen = append(seen, ids)
		mu.Unlock()
		return nil
	}))

	first := []uuid.UUID{uuid.New()}
	second := []uuid.UUID{uuid.New(), uuid.New()}
	q.Enqueue(first)
	q.Enqueue(second)
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, first, seen[0])
	assert.Equal(t, second, seen[1])
	assert.Equal(t, 0, q.Depth())
}

func TestQueueHoldsJobsUntilProcessorRegistered(t *testing.T) {
	q := newTestQueue(t)

	q.Enqueue([]uuid.UUID{uuid.New()})
	q.Enqueue([]uuid.UUID{uuid.New()})
	assert.Equal(t, 2, q.Depth())

	var mu sync.Mutex
	var processed int
	require.NoError(t, q.RegisterProcessor(func(_ context.Context, _ []uuid.UUID) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}))
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 0, q.Depth())
}

func TestQueueSecondRegistrationFailsHard(t *testing.T) {
	q := newTestQueue(t)
	noop := func(_ context.Context, _ []uuid.UUID) error { return nil }

	require.NoError(t, q.RegisterProcessor(noop))
	err := q.RegisterProcessor(noop)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestQueueRunsSingleDrainLoop(t *testing.T) {
	q := newTestQueue(t)

	var mu sync.Mutex
	var active, maxActive, processed int
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	require.NoError(t, q.RegisterProcessor(func(_ context.Context, _ []uuid.UUID) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		select {
		case started <- struct{}{}:
		default:
		}
		<-release

		mu.Lock()
		active--
		processed++
		mu.Unlock()
		return nil
	}))

	q.Enqueue([]uuid.UUID{uuid.New()})
	<-started

	// Enqueues during an active drain must not spawn a second loop.
	for i := 0; i < 5; i++ {
		q.Enqueue([]uuid.UUID{uuid.New()})
	}
	close(release)
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive, "jobs must never run concurrently")
	assert.Equal(t, 6, processed)
}

func TestQueueSurvivesFailingJob(t *testing.T) {
	q := newTestQueue(t)

	var mu sync.Mutex
	var order []string
	require.NoError(t, q.RegisterProcessor(func(_ context.Context, ids []uuid.UUID) error {
		mu.Lock()
		defer mu.Unlock()
		if len(order) == 0 {
			order = append(order, "failed")
			return errors.New("smtp down")
		}
		order = append(order, "ok")
		return nil
	}))

	q.Enqueue([]uuid.UUID{uuid.New()})
	q.Enqueue([]uuid.UUID{uuid.New()})
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"failed", "ok"}, order)
	assert.Equal(t, 0, q.Depth())
}

func TestQueueCopiesJobSlice(t *testing.T) {
	q := newTestQueue(t)

	want := uuid.New()
	var mu sync.Mutex
	var got []uuid.UUID
	require.NoError(t, q.RegisterProcessor(func(_ context.Context, ids []uuid.UUID) error {
		mu.Lock()
		got = append([]uuid.UUID(nil), ids...)
		mu.Unlock()
		return nil
	}))

	ids := []uuid.UUID{want}
	q.Enqueue(ids)
	ids[0] = uuid.New()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestQueueDropsEmptyJob(t *testing.T) {
	q := newTestQueue(t)

	var mu sync.Mutex
	var processed int
	require.NoError(t, q.RegisterProcessor(func(_ context.Context, ids []uuid.UUID) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}))

	q.Enqueue(nil)
	q.Enqueue([]uuid.UUID{})
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, processed)
	assert.Zero(t, q.Depth())
}
