// Package archive copies drawing operations into SQLite off the
// relay's hot path. The archive is an audit trail for inspection
// endpoints; it is never read back for resync, so live state still
// lives only in memory.
package archive

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/draw-together/backend/internal/model"
	"github.com/draw-together/backend/internal/repository"
)

// DefaultBuffer is the queue size used when none is configured.
const DefaultBuffer = 1024

// writeTimeout bounds how long one archive write may hold the drain
// goroutine.
const writeTimeout = 5 * time.Second

type jobKind int

const (
	jobInsert jobKind = iota
	jobSetRemoved
)

type job struct {
	kind    jobKind
	roomID  string
	op      *model.Operation
	opID    string
	removed bool
}

// Archiver drains operation records into the repository on a background
// goroutine. Enqueueing never blocks: when the queue is full the record
// is dropped and logged, so the relay never waits on database latency.
type Archiver struct {
	repo *repository.ArchiveRepository
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewArchiver creates an Archiver and starts its drain goroutine.
func NewArchiver(repo *repository.ArchiveRepository, buffer int) *Archiver {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	a := &Archiver{
		repo: repo,
		jobs: make(chan job, buffer),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// RecordAppend queues an appended operation for archiving. The
// operation is copied so later tombstone flips never race the drain.
func (a *Archiver) RecordAppend(roomID string, op *model.Operation) {
	cp := *op
	a.enqueue(job{kind: jobInsert, roomID: roomID, op: &cp})
}

// RecordRemoved queues an undo/redo flip for an archived operation.
func (a *Archiver) RecordRemoved(operationID string, removed bool) {
	a.enqueue(job{kind: jobSetRemoved, opID: operationID, removed: removed})
}

func (a *Archiver) enqueue(j job) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	select {
	case a.jobs <- j:
	default:
		log.Printf("[ARCHIVE] queue full, dropping record")
	}
}

func (a *Archiver) run() {
	defer a.wg.Done()

	for j := range a.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		switch j.kind {
		case jobInsert:
			err = a.repo.InsertOperation(ctx, j.roomID, j.op)
		case jobSetRemoved:
			err = a.repo.SetOperationRemoved(ctx, j.opID, j.removed)
		}
		cancel()

		if err != nil {
			log.Printf("[ARCHIVE] write failed: %v", err)
		}
	}
}

// Close stops accepting records and waits for the queue to drain.
func (a *Archiver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.jobs)
	a.mu.Unlock()

	a.wg.Wait()
}
