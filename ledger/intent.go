/*
intent.go - Write-ahead intents for two-account transfers

PURPOSE:
  The store offers independent get/put with no multi-key transaction,
  but a transfer must persist both legs or neither. The ledger provides
  that guarantee itself with a write-ahead intent: before touching
  either account, the complete post-transfer state of both is staged
  under its own key. The staged intent is the commit point.

PROTOCOL:
  1. Stage intent at "ecosystem:transfer:<uuid>" holding both
     post-transfer records.          <- commit point
  2. Save the from record, then the to record.
  3. Delete the intent.

  Failure before step 1 persists: nothing happened, the transfer is
  cleanly rejected. Failure after: the transfer is committed and is
  only ever rolled FORWARD - the staged records are rewritten until
  both legs are durable, then the intent is removed. Rolling back
  after a leg may already be durable would be the ambiguity this
  design exists to prevent.

RECOVERY:
  Within a live process, any operation touching an account with a
  pending intent first completes that intent (see service.go). After a
  crash, RecoverIntents scans the intent prefix at startup - before
  the server accepts connections, so no newer write can be clobbered -
  and rolls every survivor forward.

SEE ALSO:
  - service.go: TransferCredit, completePending
  - cmd/server/main.go: RecoverIntents at startup
*/
package ledger

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// transferIntent is the staged, committed form of one transfer. The
// records are complete post-transfer values; applying them is
// idempotent.
type transferIntent struct {
	ID         string    `json:"id"`
	FromID     AccountID `json:"from_user_id"`
	ToID       AccountID `json:"to_user_id"`
	Amount     int64     `json:"credit"`
	Time       int64     `json:"time"`
	FromRecord *Account  `json:"from_record"`
	ToRecord   *Account  `json:"to_record"`
}

func newTransferIntent(from, to AccountID, amount, at int64, fromRec, toRec *Account) *transferIntent {
	return &transferIntent{
		ID:         uuid.NewString(),
		FromID:     from,
		ToID:       to,
		Amount:     amount,
		Time:       at,
		FromRecord: fromRec,
		ToRecord:   toRec,
	}
}

func (in *transferIntent) key() string {
	return transferKeyPrefix + in.ID
}

// stage persists the intent. After stage returns nil the transfer is
// committed.
func (in *transferIntent) stage(ctx context.Context, store Store) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return &StorageError{Op: "encode", Key: in.key(), Err: err}
	}
	return store.Set(ctx, in.key(), raw)
}

// apply writes both staged records and removes the intent. Safe to
// call repeatedly; every write carries the same bytes.
func (in *transferIntent) apply(ctx context.Context, repo *Repository, store Store) error {
	if err := repo.Save(ctx, in.FromID, in.FromRecord); err != nil {
		return err
	}
	if err := repo.Save(ctx, in.ToID, in.ToRecord); err != nil {
		return err
	}
	return store.Delete(ctx, in.key())
}

// RecoverIntents rolls forward every transfer intent left behind by a
// crash. Must run before the process serves any ledger operation.
func RecoverIntents(ctx context.Context, store Store) error {
	repo := NewRepository(store)
	keys, err := store.Keys(ctx, transferKeyPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var in transferIntent
		if err := json.Unmarshal(raw, &in); err != nil {
			return &StorageError{Op: "decode", Key: key, Err: err}
		}
		if err := in.apply(ctx, repo, store); err != nil {
			return err
		}
		log.Printf("ledger: recovered transfer %s: %s -> %s (%d)", in.ID, in.FromID, in.ToID, in.Amount)
	}
	return nil
}
