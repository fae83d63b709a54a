// Package idempotency stores the responses of create requests that carry
// an Idempotency-Key so a retried request is answered from the store
// instead of creating a second entity.
//
// Entries are keyed by Key(user, operation, client key, body). Only 2xx
// responses are stored. Stores are in-memory (MemoryStore) or shared
// through Valkey (ValkeyStore).
package idempotency
