/*
locks.go - Per-account mutual exclusion

PURPOSE:
  Every ledger operation is a read-modify-write over the shared store,
  so two concurrent operations on the same account would race: both
  load the pre-update record, both compute from stale data, and the
  second save erases the first (lost update). The lock table serializes
  operations per account id without serializing unrelated accounts.

DEADLOCK:
  Transfer holds two locks at once. Both are always acquired in
  lexicographic id order, so two transfers over the same pair in
  opposite directions cannot deadlock.

SCOPE:
  In-process only. A single process owns all writes to the store; see
  DESIGN.md for the choice of this strategy over store-level
  compare-and-swap.
*/
package ledger

import "sync"

// lockTable maps account ids to mutexes. Entries are created on first
// use and retained; the table grows with the set of accounts touched
// by this process, which is bounded by the account population.
type lockTable struct {
	mu    sync.Mutex
	locks map[AccountID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[AccountID]*sync.Mutex)}
}

func (t *lockTable) lockFor(id AccountID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// acquire locks one account and returns the unlock.
func (t *lockTable) acquire(id AccountID) func() {
	l := t.lockFor(id)
	l.Lock()
	return l.Unlock
}

// acquirePair locks two distinct accounts in lexicographic order and
// returns a single unlock for both.
func (t *lockTable) acquirePair(a, b AccountID) func() {
	if b < a {
		a, b = b, a
	}
	la := t.lockFor(a)
	lb := t.lockFor(b)
	la.Lock()
	lb.Lock()
	return func() {
		lb.Unlock()
		la.Unlock()
	}
}
