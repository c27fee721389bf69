package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyup/studyup/internal/worker"
)

type recordJob struct {
	id  int
	err error
	mu  *sync.Mutex
	out *[]int
}

func (j recordJob) Name() string { return "record" }

func (j recordJob) Run(context.Context) error {
	j.mu.Lock()
	*j.out = append(*j.out, j.id)
	j.mu.Unlock()
	return j.err
}

func TestPool_SingleWorkerRunsInOrder(t *testing.T) {
	pool := worker.NewPool(1, 16)

	var mu sync.Mutex
	var got []int
	// Submitted before Start: jobs wait in the queue.
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(recordJob{id: i, mu: &mu, out: &got}))
	}
	assert.Equal(t, 10, pool.QueueSize())

	pool.Start(context.Background())
	pool.Stop()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got, "stop should drain the queue in order")
}

func TestPool_Stats(t *testing.T) {
	pool := worker.NewPool(2, 8)
	pool.Start(context.Background())

	var mu sync.Mutex
	var got []int
	require.NoError(t, pool.Submit(recordJob{id: 1, mu: &mu, out: &got}))
	require.NoError(t, pool.Submit(recordJob{id: 2, mu: &mu, out: &got, err: errors.New("boom")}))
	require.NoError(t, pool.Submit(recordJob{id: 3, mu: &mu, out: &got}))
	pool.Stop()

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, 0, stats.Pending)
	assert.ElementsMatch(t, []int{1, 2, 3}, got)
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop() // idempotent

	var mu sync.Mutex
	var got []int
	err := pool.Submit(recordJob{id: 1, mu: &mu, out: &got})
	assert.ErrorIs(t, err, worker.ErrPoolClosed)
	assert.Empty(t, got)
}

func TestNewPool_Defaults(t *testing.T) {
	pool := worker.NewPool(0, 0)
	assert.Equal(t, 0, pool.QueueSize())
	pool.Start(context.Background())
	pool.Stop()
}

type gateJob struct {
	started chan struct{}
	release chan struct{}
}

func (j gateJob) Name() string { return "gate" }

func (j gateJob) Run(context.Context) error {
	close(j.started)
	<-j.release
	return nil
}

// droppableJob records whether it ran or was abandoned.
type droppableJob struct {
	mu        *sync.Mutex
	ran       *int
	abandoned *[]error
}

func (j droppableJob) Name() string { return "droppable" }

func (j droppableJob) Run(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	*j.ran++
	return nil
}

func (j droppableJob) Abandon(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	*j.abandoned = append(*j.abandoned, err)
}

func TestPool_CancelAbandonsQueuedJobs(t *testing.T) {
	pool := worker.NewPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	gate := gateJob{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, pool.Submit(gate))
	<-gate.started

	var mu sync.Mutex
	var ran int
	var abandoned []error
	for i := 0; i < 2; i++ {
		require.NoError(t, pool.Submit(droppableJob{mu: &mu, ran: &ran, abandoned: &abandoned}))
	}

	cancel()
	close(gate.release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(abandoned) == 2
	}, time.Second, 5*time.Millisecond)
	pool.Stop()

	assert.Zero(t, ran)
	for _, err := range abandoned {
		assert.ErrorIs(t, err, worker.ErrJobAbandoned)
	}
	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(2), stats.Failed)
}

func TestPool_StopAbandonsJobsOfCancelledPool(t *testing.T) {
	pool := worker.NewPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool.Start(ctx)

	var mu sync.Mutex
	var ran int
	var abandoned []error
	require.NoError(t, pool.Submit(droppableJob{mu: &mu, ran: &ran, abandoned: &abandoned}))
	pool.Stop()

	assert.Zero(t, ran)
	assert.Len(t, abandoned, 1)
}
