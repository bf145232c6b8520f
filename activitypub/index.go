package activitypub

import (
	"errors"
	"sync"

	"github.com/bihlink/shuttlecraft/internal/algorithms"
	"github.com/bihlink/shuttlecraft/storage"
)

// KindNote tags object descriptors for notes.
const KindNote = "note"

// A Descriptor is a lightweight index entry summarising an object for
// chronological and reply graph queries without reading the full object.
type Descriptor struct {
	Kind      string `json:"type"`
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	Published int64  `json:"published"` // epoch milliseconds
	InReplyTo string `json:"inReplyTo,omitempty"`
}

// DescriptorFor summarises a note into an index descriptor.
func DescriptorFor(note *Note) Descriptor {
	d := Descriptor{
		Kind:      KindNote,
		ID:        note.ID,
		Actor:     note.AttributedTo,
		Published: note.PublishedTime().UnixMilli(),
	}
	if note.InReplyTo != nil {
		d.InReplyTo = *note.InReplyTo
	}
	return d
}

// An Index is the in memory, append only list of object descriptors. Entries
// are held in insertion order, not time order; consumers sort by publish
// time when chronology matters. The index lives only in process memory and
// is rebuilt from the store at startup; it may be a strict subset of the
// objects actually persisted.
type Index struct {
	mu      sync.RWMutex
	entries []Descriptor
}

func NewIndex() *Index {
	return &Index{}
}

// Append inserts d at the end of the index.
func (ix *Index) Append(d Descriptor) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, d)
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Notes returns the descriptors of all indexed notes, in insertion order.
func (ix *Index) Notes() []Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return algorithms.Filter(ix.entries, func(d Descriptor) bool { return d.Kind == KindNote })
}

// Replies returns the descriptors of all direct replies to the object id.
func (ix *Index) Replies(id string) []Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return algorithms.Filter(ix.entries, func(d Descriptor) bool { return d.InReplyTo == id })
}

// Rebuild replaces the index contents with descriptors for every note
// persisted in the store. It is called once at process start; objects that
// were only ever indexed, never persisted, are not recovered.
func (ix *Index) Rebuild(store storage.Store) error {
	keys, err := store.Keys(notesPrefix)
	if err != nil {
		return err
	}
	entries := make([]Descriptor, 0, len(keys))
	for _, key := range keys {
		var note Note
		if err := store.ReadDictionary(key, &note); err != nil {
			if errors.Is(err, storage.ErrNotExist) {
				continue
			}
			return err
		}
		entries = append(entries, DescriptorFor(&note))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = entries
	return nil
}
