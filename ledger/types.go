/*
types.go - Core data model for the credit ledger

PURPOSE:
  Defines the Account record and its Alteration history. An Account is
  a balance plus an append-only audit log of every delta applied to it.
  Balance and history live together in a single store value, so every
  mutation is a whole-record read-modify-write.

CRITICAL INVARIANTS:
  1. NON-NEGATIVE: Credit never goes below zero after Adjust/Transfer.
     SetCredit is the one administrative exception (see service.go).
  2. APPEND-ONLY: Alterations are never edited or removed. Corrections
     are made by applying an opposite delta, not by rewriting history.
  3. CHRONOLOGICAL: History insertion order is the order deltas were
     applied.

KEY SCHEME:
  One store key per account: "ecosystem:account:<id>". The value is the
  full JSON-serialized record. There are no partial-field writes.

SEE ALSO:
  - repository.go: Serialization to/from the store
  - service.go: The four operations that mutate this model
*/
package ledger

// AccountID identifies one account. Opaque; the ledger never parses it.
type AccountID string

const (
	accountKeyPrefix  = "ecosystem:account:"
	transferKeyPrefix = "ecosystem:transfer:"
)

// AccountKey returns the store key holding the serialized record for id.
func AccountKey(id AccountID) string {
	return accountKeyPrefix + string(id)
}

// Alteration is one immutable history entry describing a balance change.
// Wire and store field names follow the external protocol.
type Alteration struct {
	Time   int64  `json:"time"`   // unix seconds when the delta was applied
	Delta  int64  `json:"credit"` // signed change to the balance
	Reason string `json:"reason"` // free text, possibly empty
}

// Account is the persisted state for one account.
type Account struct {
	Credit  int64        `json:"credit"`
	History []Alteration `json:"alter_records"`
}

// NewAccount returns a fresh zero-credit record with empty history.
func NewAccount() *Account {
	return &Account{History: []Alteration{}}
}

// apply adds delta to the balance and appends the matching history entry.
// Callers validate the resulting balance before calling.
func (a *Account) apply(at int64, delta int64, reason string) {
	a.Credit += delta
	a.History = append(a.History, Alteration{Time: at, Delta: delta, Reason: reason})
}

// ReplayedCredit sums the full history from zero. For accounts whose
// balance was never administratively Set, this equals Credit.
func (a *Account) ReplayedCredit() int64 {
	var total int64
	for _, alt := range a.History {
		total += alt.Delta
	}
	return total
}
