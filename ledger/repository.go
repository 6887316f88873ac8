/*
repository.go - Account persistence over the key-value store

PURPOSE:
  Serializes one Account to/from its store key. Pure plumbing: no
  business logic, no caching across calls. Every Load hits the store,
  every Save writes the complete record.

SEE ALSO:
  - store.go: The raw key-value interface
  - service.go: The only caller
*/
package ledger

import (
	"context"
	"encoding/json"
)

// Repository mediates every account read and write. It never caches,
// so a Load always reflects the store's current bytes.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Load reads and decodes the record for id. Returns (nil, nil) when no
// record exists. Undecodable bytes are a StorageError: the store is
// the durable owner of record bytes, and corruption there is a store
// failure, not a domain condition.
func (r *Repository) Load(ctx context.Context, id AccountID) (*Account, error) {
	key := AccountKey(id)
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var acct Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, &StorageError{Op: "decode", Key: key, Err: err}
	}
	if acct.History == nil {
		acct.History = []Alteration{}
	}
	return &acct, nil
}

// Save serializes and writes the full record, replacing any prior value.
func (r *Repository) Save(ctx context.Context, id AccountID, acct *Account) error {
	key := AccountKey(id)
	raw, err := json.Marshal(acct)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	return r.store.Set(ctx, key, raw)
}
