package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/jobs"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/testutil/mocks"
	"github.com/studyup/studyup/internal/worker"
)

// orderedCommitter records the set IDs it was asked to commit.
type orderedCommitter struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	block chan struct{}
}

func (c *orderedCommitter) Commit(_ context.Context, cs models.ChangeSet) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, cs.SetID)
	if c.fail[cs.SetID] {
		return errors.New("disk full")
	}
	return nil
}

func (c *orderedCommitter) committed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seen...)
}

func changeSet(setID string) models.ChangeSet {
	return models.ChangeSet{SetID: setID, Deleted: []string{"card-" + setID}}
}

func startPool(t *testing.T) *worker.Pool {
	t.Helper()
	pool := worker.NewPool(1, 32)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	return pool
}

func TestWriteBehind_CommitsInSubmissionOrder(t *testing.T) {
	repo := &orderedCommitter{}
	q := jobs.NewWriteBehind(startPool(t), repo)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Persist(ctx, changeSet(id)))
	}
	require.NoError(t, q.Flush(ctx))

	assert.Equal(t, []string{"a", "b", "c", "d"}, repo.committed())
}

func TestWriteBehind_PendingReportsFailure(t *testing.T) {
	repo := &orderedCommitter{fail: map[string]bool{"bad": true}}
	q := jobs.NewWriteBehind(startPool(t), repo)
	ctx := context.Background()

	ok, err := q.Enqueue(ctx, changeSet("good"))
	require.NoError(t, err)
	bad, err := q.Enqueue(ctx, changeSet("bad"))
	require.NoError(t, err)

	assert.NoError(t, ok.Wait(ctx))
	werr := bad.Wait(ctx)
	require.Error(t, werr)
	appErr, isApp := apperrors.AsAppError(werr)
	require.True(t, isApp)
	assert.Equal(t, apperrors.ErrCodePersistence, appErr.Code)

	// A failed commit does not stop later ones.
	require.NoError(t, q.Persist(ctx, changeSet("after")))
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, []string{"good", "bad", "after"}, repo.committed())
}

func TestWriteBehind_EmptyChangeSetSkipsRepository(t *testing.T) {
	repo := new(mocks.MockFlashcardRepository)
	q := jobs.NewWriteBehind(startPool(t), repo)
	ctx := context.Background()

	p, err := q.Enqueue(ctx, models.ChangeSet{SetID: "s"})
	require.NoError(t, err)

	select {
	case <-p.Done():
	default:
		t.Fatal("empty change set should resolve immediately")
	}
	require.NoError(t, q.Flush(ctx))
	repo.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestWriteBehind_FlushWaitsForInflight(t *testing.T) {
	repo := &orderedCommitter{block: make(chan struct{})}
	q := jobs.NewWriteBehind(startPool(t), repo)
	ctx := context.Background()

	require.NoError(t, q.Persist(ctx, changeSet("slow")))

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Flush(short), context.DeadlineExceeded)

	close(repo.block)
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, []string{"slow"}, repo.committed())
}

func TestWriteBehind_ClosedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()

	q := jobs.NewWriteBehind(pool, &orderedCommitter{})
	_, err := q.Enqueue(context.Background(), changeSet("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, worker.ErrPoolClosed)
	assert.NoError(t, q.Flush(context.Background()), "a rejected job must not leave flush waiting")
}

func TestWriteBehind_CancelledPoolResolvesPending(t *testing.T) {
	pool := worker.NewPool(1, 8)
	poolCtx, cancel := context.WithCancel(context.Background())
	cancel()
	pool.Start(poolCtx)

	repo := &orderedCommitter{}
	q := jobs.NewWriteBehind(pool, repo)
	ctx := context.Background()

	p, err := q.Enqueue(ctx, changeSet("late"))
	require.NoError(t, err)
	pool.Stop()

	waitCtx, done := context.WithTimeout(ctx, time.Second)
	defer done()
	werr := p.Wait(waitCtx)
	assert.ErrorIs(t, werr, worker.ErrJobAbandoned)
	appErr, isApp := apperrors.AsAppError(werr)
	require.True(t, isApp)
	assert.Equal(t, apperrors.ErrCodePersistence, appErr.Code)

	assert.NoError(t, q.Flush(waitCtx))
	assert.Empty(t, repo.committed())
}

func TestImmediate(t *testing.T) {
	repo := new(mocks.MockFlashcardRepository)
	ctx := context.Background()
	cs := changeSet("s")

	repo.On("Commit", ctx, cs).Return(nil).Once()
	assert.NoError(t, jobs.Immediate{Repo: repo}.Persist(ctx, cs))

	repo.On("Commit", ctx, cs).Return(errors.New("locked")).Once()
	err := jobs.Immediate{Repo: repo}.Persist(ctx, cs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	repo.AssertExpectations(t)
}
