package chronicle

import (
	"fmt"

	"github.com/arcmantle/chronicle/internal/txn"
)

// BeginBatch opens a new nested frame, reusing a freshly allocated group id
// for every change recorded while it is the innermost open frame (spec.md
// §4.J; see internal/txn's doc comment for the nested-frame group-id policy
// this port takes).
func (r *Root) BeginBatch() {
	r.mu.Lock()
	gid := r.grouping.NextID()
	r.grouping.ForgetLastUngrouped()
	marker := r.log.Len()
	r.batch.Open(gid, marker)
	r.mu.Unlock()
}

// CommitBatch closes the innermost frame, keeping everything recorded in it.
func (r *Root) CommitBatch() {
	r.mu.Lock()
	r.batch.Pop()
	r.mu.Unlock()
}

// RollbackBatch closes the innermost frame and undoes everything recorded
// at or after its marker.
func (r *Root) RollbackBatch() {
	r.mu.Lock()
	frame, ok := r.batch.Pop()
	r.mu.Unlock()
	if !ok {
		return
	}
	r.logger.Warn("rolling back batch frame")
	r.UndoSince(frame.Marker)
}

// Batch runs action inside a begin/commit frame, rolling back instead of
// committing if action panics (spec.md §4.J/§7's UserCallbackFailure).
func (r *Root) Batch(action func()) {
	txn.Batch(r, action)
}

// TransactionResult is transaction(action)'s return value (spec.md §6):
// Result is whatever action returned, Marker is the log length transaction
// opened at, and Undo reverts exactly what this transaction did.
type TransactionResult struct {
	Result any
	Marker int
	Undo   func()
}

// Transaction runs action inside a begin/commit-or-rollback frame and
// returns a handle whose Undo call reverts exactly this transaction's
// changes: it prefers UndoGroups(1) if the transaction's group is still the
// most recent one in the log, falling back to UndoSince(marker) if
// something else was recorded afterward (spec.md §4.J).
func (r *Root) Transaction(action func() (any, error)) (TransactionResult, error) {
	r.mu.Lock()
	marker := r.log.Len()
	r.mu.Unlock()

	r.BeginBatch()
	result, err := action()
	return r.settleTransaction(marker, result, err)
}

// TransactionAsyncResult is what TransactionAsync delivers once its action
// settles: either a TransactionResult, or Err if the action failed (spec.md
// §9's replacement for the original's thenable-or-value return union —
// "two explicitly named operations: synchronous transaction and
// asynchronous transactionAsync, each with its own return type"). Exactly
// one value is ever sent on a TransactionAsync channel.
type TransactionAsyncResult struct {
	TransactionResult
	Err error
}

// TransactionAsync opens its begin/commit-or-rollback frame synchronously,
// then runs action in its own goroutine and returns immediately with a
// channel that receives the settled TransactionAsyncResult. Opening the
// frame before starting the goroutine is what gives async transactions
// spec.md §5's guarantee ("async transactions therefore maintain their
// batch frame across suspension points"): the frame is already the
// innermost one on the stack before action's first suspension point, so
// every mutation action makes — no matter how long it runs, or how many
// goroutine scheduling points it crosses — is grouped under this
// transaction rather than whatever else BeginBatch/Transaction happens to
// be active by the time action gets around to mutating.
func (r *Root) TransactionAsync(action func() (any, error)) <-chan TransactionAsyncResult {
	out := make(chan TransactionAsyncResult, 1)

	r.mu.Lock()
	marker := r.log.Len()
	r.mu.Unlock()
	r.BeginBatch()

	go func() {
		result, err := action()
		txResult, txErr := r.settleTransaction(marker, result, err)
		out <- TransactionAsyncResult{TransactionResult: txResult, Err: txErr}
	}()

	return out
}

// settleTransaction is Transaction/TransactionAsync's shared commit-or-
// rollback tail: it assumes BeginBatch already opened the innermost frame
// and action (whether run inline or in a goroutine) has already returned.
func (r *Root) settleTransaction(marker int, result any, err error) (TransactionResult, error) {
	if err != nil {
		r.RollbackBatch()
		return TransactionResult{}, fmt.Errorf("%w: %v", ErrUserCallbackFailed, err)
	}

	r.mu.Lock()
	frame, _ := r.batch.Top()
	frameGroup := frame.GroupID
	r.mu.Unlock()
	r.CommitBatch()

	undo := func() {
		r.mu.Lock()
		stillTopGroup := r.log.Len() > marker && r.log.At(r.log.Len()-1).GroupID == frameGroup
		r.mu.Unlock()
		if stillTopGroup {
			r.UndoGroups(1)
		} else {
			r.UndoSince(marker)
		}
	}
	return TransactionResult{Result: result, Marker: marker, Undo: undo}, nil
}
