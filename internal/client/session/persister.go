package session

import (
	"context"

	"github.com/adiwinata/fittrack/internal/client/models"
	"github.com/adiwinata/fittrack/internal/logging"
)

// Persister serializes store writes through a single worker goroutine.
//
// Callers never block on persistence: Save and Clear enqueue and return.
// Jobs are applied strictly in enqueue order, so two profile updates can
// never interleave their writes. Failures are logged and dropped, keeping
// the in-memory session usable (availability over durability).
type Persister struct {
	store Store
	log   logging.Logger
	jobs  chan job
	done  chan struct{}
}

type job struct {
	save  *models.Session // nil means clear
	clear bool
	ack   chan struct{} // non-nil for settle markers
}

// NewPersister starts the worker. Close must be called to stop it.
func NewPersister(store Store, log logging.Logger) *Persister {
	p := &Persister{
		store: store,
		log:   log,
		jobs:  make(chan job, 64),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Persister) run() {
	defer close(p.done)
	ctx := context.Background()
	for j := range p.jobs {
		switch {
		case j.ack != nil:
			close(j.ack)
		case j.clear:
			if err := p.store.Clear(ctx); err != nil {
				p.log.Error(ctx, "failed to clear persisted session", "error", err)
			}
		case j.save != nil:
			if err := p.store.Save(ctx, j.save); err != nil {
				p.log.Error(ctx, "failed to persist session", "error", err)
			}
		}
	}
}

// Save enqueues a write of the given session snapshot.
func (p *Persister) Save(s *models.Session) {
	p.jobs <- job{save: s.Clone()}
}

// Clear enqueues removal of the persisted session.
func (p *Persister) Clear() {
	p.jobs <- job{clear: true}
}

// Settle blocks until every job enqueued before the call has been applied.
// Used by tests and by shutdown to know persistence has caught up.
func (p *Persister) Settle(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case p.jobs <- job{ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains outstanding jobs and stops the worker.
func (p *Persister) Close() {
	close(p.jobs)
	<-p.done
}
