// Package policy implements the migration-scope policy engine: a single
// linear walk over one file's statement list that tracks transaction
// state and emits PolicyViolations for timeout, ordering, and lock-window
// patterns spec §4.4 describes.
package policy

import "github.com/pgfence/pgfence/internal/locks"

// TransactionState is the live state the policy engine maintains while
// walking one file, per spec §3. It is instantiated fresh per file.
type TransactionState struct {
	active     bool
	depth      int
	savepoints []string
	lockMap    map[string]locks.Mode
	snapshots  map[string]map[string]locks.Mode
	accessExcl map[string]bool
	stmtCount  int
}

// NewTransactionState returns a fresh, inactive TransactionState.
func NewTransactionState() *TransactionState {
	return &TransactionState{
		lockMap:    make(map[string]locks.Mode),
		snapshots:  make(map[string]map[string]locks.Mode),
		accessExcl: make(map[string]bool),
	}
}

func (t *TransactionState) Active() bool { return t.active }
func (t *TransactionState) Depth() int   { return t.depth }

// Begin advances the state machine on BEGIN/START. Invariant (i): active
// iff depth > 0. A top-level BEGIN restarts the statement count.
func (t *TransactionState) Begin() {
	if t.depth == 0 {
		t.stmtCount = 0
	}
	t.depth++
	t.active = t.depth > 0
}

// reset clears all per-transaction state, per invariant (ii): on COMMIT or
// ROLLBACK at the top level, all fields reset.
func (t *TransactionState) reset() {
	t.active = false
	t.depth = 0
	t.savepoints = nil
	t.lockMap = make(map[string]locks.Mode)
	t.snapshots = make(map[string]map[string]locks.Mode)
	t.accessExcl = make(map[string]bool)
	t.stmtCount = 0
}

// Commit advances the state machine on COMMIT. Depth is floored at 0; a
// transition to depth 0 resets all transaction-scoped state.
func (t *TransactionState) Commit() {
	if t.depth > 0 {
		t.depth--
	}
	if t.depth == 0 {
		t.reset()
	}
}

// Rollback advances the state machine on (top-level) ROLLBACK. Same
// semantics as Commit: depth floored at 0, full reset on reaching 0.
func (t *TransactionState) Rollback() {
	t.Commit()
}

// Savepoint pushes name and snapshots the current lock map under it.
func (t *TransactionState) Savepoint(name string) {
	t.savepoints = append(t.savepoints, name)
	snap := make(map[string]locks.Mode, len(t.lockMap))
	for k, v := range t.lockMap {
		snap[k] = v
	}
	t.snapshots[name] = snap
}

// Release pops name and every savepoint above it, discarding their
// snapshots.
func (t *TransactionState) Release(name string) {
	idx := t.indexOf(name)
	if idx == -1 {
		return
	}
	for _, s := range t.savepoints[idx:] {
		delete(t.snapshots, s)
	}
	t.savepoints = t.savepoints[:idx]
}

// RollbackTo pops savepoints strictly above name, restores the lock map
// from name's snapshot, and recomputes the ACCESS-EXCLUSIVE set from the
// restored map (invariant (iii)/(iv)).
func (t *TransactionState) RollbackTo(name string) {
	idx := t.indexOf(name)
	if idx == -1 {
		return
	}
	for _, s := range t.savepoints[idx+1:] {
		delete(t.snapshots, s)
	}
	t.savepoints = t.savepoints[:idx+1]

	snap, ok := t.snapshots[name]
	if !ok {
		return
	}
	restored := make(map[string]locks.Mode, len(snap))
	for k, v := range snap {
		restored[k] = v
	}
	t.lockMap = restored

	t.accessExcl = make(map[string]bool)
	for table, mode := range t.lockMap {
		if mode == locks.AccessExclusive {
			t.accessExcl[table] = true
		}
	}
}

func (t *TransactionState) indexOf(name string) int {
	for i, s := range t.savepoints {
		if s == name {
			return i
		}
	}
	return -1
}

// LockResult is the derived information RecordLock returns, the small
// amount the policy engine's walker needs to decide whether to emit a
// warning.
type LockResult struct {
	// IsNewAccessExclusiveTable is true when mode is ACCESS EXCLUSIVE and
	// table was not already in the ACCESS-EXCLUSIVE set.
	IsNewAccessExclusiveTable bool

	// WideLockWindow is true when this statement acquires ACCESS
	// EXCLUSIVE on a table different from any table already under
	// ACCESS EXCLUSIVE in the current transaction.
	WideLockWindow bool

	// PreviousTable names an already-ACCESS-EXCLUSIVE table, for citing
	// in a wide-lock-window message. Empty if WideLockWindow is false.
	PreviousTable string

	// HadPriorAccessExclusive is true when an ACCESS EXCLUSIVE statement
	// already existed in the current transaction before this one (used
	// for compounding-lock detection).
	HadPriorAccessExclusive bool
}

// RecordLock records that table acquired mode, keeping only the strongest
// lock per table (ordinal order, per spec §3), and returns the derived
// information the walker needs for wide-lock-window and compounding-lock
// detection.
func (t *TransactionState) RecordLock(table string, mode locks.Mode) LockResult {
	if table == "" {
		return LockResult{}
	}

	result := LockResult{HadPriorAccessExclusive: len(t.accessExcl) > 0}

	if existing, ok := t.lockMap[table]; !ok || mode > existing {
		t.lockMap[table] = mode
	} else {
		mode = existing
	}

	if mode == locks.AccessExclusive {
		alreadyLocked := t.accessExcl[table]
		result.IsNewAccessExclusiveTable = !alreadyLocked

		if !alreadyLocked {
			for other := range t.accessExcl {
				if other != table {
					result.WideLockWindow = true
					result.PreviousTable = other
					break
				}
			}
			t.accessExcl[table] = true
		}
	}

	return result
}

// IncrementStatementCount bumps the count of statements seen in the
// current transaction.
func (t *TransactionState) IncrementStatementCount() { t.stmtCount++ }

// StatementCount returns the count of statements seen since the last
// Begin (or since construction, if never begun).
func (t *TransactionState) StatementCount() int { return t.stmtCount }
