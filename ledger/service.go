/*
service.go - The four ledger operations

PURPOSE:
  Implements set, get, adjust, and transfer against the Repository,
  enforcing the non-negative invariant and the append-only history.
  This is the sole writer of account records.

CONCURRENCY:
  Every operation runs its load-modify-save under the account's mutex
  (both accounts' mutexes for transfer, acquired in lexicographic
  order). Unrelated accounts never contend. See locks.go.

DURABILITY:
  Transfers stage a write-ahead intent before touching either record;
  see intent.go. Operations that find a pending intent on their
  account complete it before proceeding, so no read or write can
  observe a half-applied transfer.

TIMEOUTS:
  Each operation bounds its store access with a deadline. A store call
  that does not return in time surfaces as a StorageError; it never
  hangs the connection.

SEE ALSO:
  - repository.go, locks.go, intent.go
  - api/router.go: The single place these errors become wire errors
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultStoreTimeout = 5 * time.Second

// Service implements the ledger operations. Safe for concurrent use.
type Service struct {
	store Store
	repo  *Repository
	locks *lockTable

	// staged-but-incomplete transfers in this process, by account.
	// A populated entry means the store rejected a write after the
	// intent was committed; the next operation on either account rolls
	// the intent forward first.
	pendingMu sync.Mutex
	pending   map[AccountID]*transferIntent

	timeout time.Duration
	now     func() time.Time
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{
		store:   store,
		repo:    NewRepository(store),
		locks:   newLockTable(),
		pending: make(map[AccountID]*transferIntent),
		timeout: defaultStoreTimeout,
		now:     time.Now,
	}
}

// WithTimeout overrides the per-operation store deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// SetCredit overwrites the balance for id, creating the account if it
// does not exist. It does not append a history entry: Set is the
// administrative correction path, and it is the one operation allowed
// to store a negative balance. A Set therefore shows up as a
// discontinuity between the stored credit and the replayed history.
func (s *Service) SetCredit(ctx context.Context, id AccountID, credit int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock := s.locks.acquire(id)
	defer unlock()
	if err := s.completePending(ctx, id); err != nil {
		return 0, err
	}

	acct, err := s.repo.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		acct = NewAccount()
	}
	acct.Credit = credit
	if err := s.repo.Save(ctx, id, acct); err != nil {
		return 0, err
	}
	return acct.Credit, nil
}

// GetCredit returns the balance and full history for id.
func (s *Service) GetCredit(ctx context.Context, id AccountID) (int64, []Alteration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock := s.locks.acquire(id)
	defer unlock()
	if err := s.completePending(ctx, id); err != nil {
		return 0, nil, err
	}

	acct, err := s.repo.Load(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if acct == nil {
		return 0, nil, &NotFoundError{ID: id}
	}
	return acct.Credit, acct.History, nil
}

// AdjustCredit applies a signed delta to id's balance and records it.
// A negative delta is a spend, a positive one a grant; a delta that
// would drive the balance negative is rejected without writing.
func (s *Service) AdjustCredit(ctx context.Context, id AccountID, delta int64, reason string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock := s.locks.acquire(id)
	defer unlock()
	if err := s.completePending(ctx, id); err != nil {
		return 0, err
	}

	acct, err := s.repo.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, &NotFoundError{ID: id}
	}
	if acct.Credit+delta < 0 {
		return 0, &InsufficientCreditError{ID: id, Available: acct.Credit, Requested: -delta}
	}
	acct.apply(s.now().Unix(), delta, reason)
	if err := s.repo.Save(ctx, id, acct); err != nil {
		return 0, err
	}
	return acct.Credit, nil
}

// TransferCredit moves amount from one account to the other. Both
// records end up updated or neither does: the two saves are covered by
// a write-ahead intent (intent.go). Each side's history gains one
// entry tagged with the counterparty.
func (s *Service) TransferCredit(ctx context.Context, from, to AccountID, amount int64, reason string) (fromCredit, toCredit int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if from == to {
		return 0, 0, ErrSameAccount
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock := s.locks.acquirePair(from, to)
	defer unlock()
	if err := s.completePending(ctx, from, to); err != nil {
		return 0, 0, err
	}

	fromAcct, err := s.repo.Load(ctx, from)
	if err != nil {
		return 0, 0, err
	}
	if fromAcct == nil {
		return 0, 0, &NotFoundError{ID: from}
	}
	toAcct, err := s.repo.Load(ctx, to)
	if err != nil {
		return 0, 0, err
	}
	if toAcct == nil {
		return 0, 0, &NotFoundError{ID: to}
	}
	if fromAcct.Credit < amount {
		return 0, 0, &InsufficientCreditError{ID: from, Available: fromAcct.Credit, Requested: amount}
	}

	at := s.now().Unix()
	fromAcct.apply(at, -amount, transferReason("to", to, reason))
	toAcct.apply(at, amount, transferReason("from", from, reason))

	in := newTransferIntent(from, to, amount, at, fromAcct, toAcct)
	if err := in.stage(ctx, s.store); err != nil {
		// Nothing staged, nothing written: the transfer never happened.
		return 0, 0, err
	}
	if err := in.apply(ctx, s.repo, s.store); err != nil {
		// Committed but not fully durable. Remember the intent so the
		// next operation on either account rolls it forward; a crash
		// before then is covered by RecoverIntents.
		s.pendingMu.Lock()
		s.pending[from] = in
		s.pending[to] = in
		s.pendingMu.Unlock()
		return 0, 0, err
	}
	return fromAcct.Credit, toAcct.Credit, nil
}

// completePending rolls forward any staged transfer touching the given
// accounts. Callers hold the account locks; the pendingMu re-check
// makes concurrent completions of the same intent apply-once.
func (s *Service) completePending(ctx context.Context, ids ...AccountID) error {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	for _, id := range ids {
		in, ok := s.pending[id]
		if !ok {
			continue
		}
		if err := in.apply(ctx, s.repo, s.store); err != nil {
			return err
		}
		delete(s.pending, in.FromID)
		delete(s.pending, in.ToID)
	}
	return nil
}

// transferReason tags one leg's history entry with the counterparty.
func transferReason(direction string, counterparty AccountID, reason string) string {
	if reason == "" {
		return fmt.Sprintf("transfer %s %s", direction, counterparty)
	}
	return fmt.Sprintf("transfer %s %s: %s", direction, counterparty, reason)
}
