// package storage provides durable storage for the node's logical records.
//
// Records are JSON documents addressed by a logical key, eg. "account",
// "followers", or "notes/<guid>". Writes are all or nothing; a failed write
// never leaves a partially written record behind.
package storage

import "errors"

// ErrNotExist is returned when a record is not present in the store.
var ErrNotExist = errors.New("storage: record does not exist")

// A Store reads and writes JSON documents addressed by logical keys.
type Store interface {
	// ReadDictionary reads the record stored under key into v.
	// It returns ErrNotExist if no record is stored under key.
	ReadDictionary(key string, v any) error

	// WriteDictionary stores v under key, replacing any previous record.
	WriteDictionary(key string, v any) error

	// Keys returns the keys of all records whose key begins with prefix.
	Keys(prefix string) ([]string, error)
}
