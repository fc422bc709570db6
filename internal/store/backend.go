package store

// Backend persists one opaque JSON document per storage key. The offer
// store overwrites the full document on every mutation; there are no
// partial writes.
type Backend interface {
	// Load returns the stored document, or (nil, nil) when the key has
	// never been written.
	Load(key string) ([]byte, error)
	// Save overwrites the document under the key.
	Save(key string, document []byte) error
	// Delete removes the key entirely.
	Delete(key string) error
}
