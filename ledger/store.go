/*
store.go - Key-value persistence interface

PURPOSE:
  Defines the interface between the ledger and the external store. The
  store is opaque key -> bytes: independent get/put with no native
  transactions and no compare-and-swap assumed. Everything the ledger
  guarantees on top of that (atomicity, no lost updates) is built in
  service.go and intent.go, not here.

CONTRACT:
  - Get returns (nil, false, nil) for an absent key, never an error.
  - Set overwrites the full value at the key.
  - Keys exists only for transfer-intent recovery at startup; the core
    operations never scan.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and dev
  - store/redis:  Redis-backed, production default
  - store/sqlite: Single-file SQLite, single-node alternative

SEE ALSO:
  - repository.go: Account (de)serialization over this interface
  - intent.go: Transfer write-ahead intents over this interface
*/
package ledger

import "context"

// Store is the external key-value store at its boundary. All methods
// honor ctx cancellation; a call that cannot complete within the
// caller's deadline must return, not hang.
type Store interface {
	// Get reads the value at key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes value at key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix. Used only for
	// startup recovery; implementations may be O(n).
	Keys(ctx context.Context, prefix string) ([]string, error)
}
