package jobs

import (
	"context"
	"sync"

	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/worker"
)

// Committer applies a change set durably.
// repository.FlashcardRepository satisfies it.
type Committer interface {
	Commit(ctx context.Context, cs models.ChangeSet) error
}

// Pending is the completion signal of one submitted commit.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the commit has run.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the commit has run and returns its error.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CommitJob writes one change set.
type CommitJob struct {
	Repo      Committer
	ChangeSet models.ChangeSet
	pending   *Pending
	finish    func()
}

func (j *CommitJob) Name() string { return "commit_change_set" }

func (j *CommitJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"set_id":   j.ChangeSet.SetID,
		"inserted": len(j.ChangeSet.Inserted),
		"updated":  len(j.ChangeSet.Updated),
		"deleted":  len(j.ChangeSet.Deleted),
	})

	var err error
	if cerr := j.Repo.Commit(ctx, j.ChangeSet); cerr != nil {
		// No retry: the in-memory set stays authoritative for this session.
		log.Warn("change set not saved, in-memory state kept")
		err = errors.NewPersistenceError("change set", cerr)
	}
	j.done(err)
	return err
}

// Abandon resolves the job without committing when the pool drops it.
func (j *CommitJob) Abandon(err error) {
	logger.Default().WithPrefix("write-behind").Warn("change set for set %s dropped: %v", j.ChangeSet.SetID, err)
	j.done(errors.NewPersistenceError("change set", err))
}

func (j *CommitJob) done(err error) {
	if j.pending != nil {
		j.pending.resolve(err)
	}
	if j.finish != nil {
		j.finish()
	}
}

// WriteBehind persists change sets asynchronously through a worker pool.
// Run the pool with a single worker so commits land in submission order.
type WriteBehind struct {
	pool *worker.Pool
	repo Committer
	log  *logger.Logger

	mu       sync.Mutex
	inflight int
	idle     chan struct{}
}

// NewWriteBehind creates a queue that commits through repo on pool.
func NewWriteBehind(pool *worker.Pool, repo Committer) *WriteBehind {
	idle := make(chan struct{})
	close(idle)
	return &WriteBehind{
		pool: pool,
		repo: repo,
		log:  logger.Default().WithPrefix("write-behind"),
		idle: idle,
	}
}

// Enqueue submits cs and returns its completion handle.
func (q *WriteBehind) Enqueue(ctx context.Context, cs models.ChangeSet) (*Pending, error) {
	if cs.Empty() {
		p := newPending()
		p.resolve(nil)
		return p, nil
	}

	q.track()
	p := newPending()
	job := &CommitJob{Repo: q.repo, ChangeSet: cs, pending: p, finish: q.untrack}
	if err := q.pool.Submit(job); err != nil {
		q.untrack()
		logger.FromContext(ctx).WithPrefix("write-behind").Error("failed to enqueue change set for set %s: %v", cs.SetID, err)
		return nil, errors.NewPersistenceError("change set", err)
	}
	return p, nil
}

// Persist enqueues cs without waiting for it.
func (q *WriteBehind) Persist(ctx context.Context, cs models.ChangeSet) error {
	_, err := q.Enqueue(ctx, cs)
	return err
}

// Flush waits until every commit submitted so far has run.
func (q *WriteBehind) Flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	n := q.inflight
	q.mu.Unlock()

	if n > 0 {
		q.log.Debug("flushing %d pending commits", n)
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WriteBehind) track() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
}

func (q *WriteBehind) untrack() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.inflight == 0 {
		close(q.idle)
	}
}

// Immediate persists change sets synchronously on the caller's goroutine.
type Immediate struct {
	Repo Committer
}

func (p Immediate) Persist(ctx context.Context, cs models.ChangeSet) error {
	if err := p.Repo.Commit(ctx, cs); err != nil {
		return errors.NewPersistenceError("change set", err)
	}
	return nil
}
