// Package storage defines the durable key/value abstraction the stores persist into.
package storage

// Keys used by the application. They match the keys the original browser client wrote.
const (
	NotesKey       = "voiceNotes"
	CurrentUserKey = "app_current_user"
	UsersKey       = "app_users"
)

// KV is an opaque key/value store. Values are stored and returned verbatim.
type KV interface {
	// Get returns the value stored under key, or an error wrapping apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases underlying resources.
	Close() error
}
