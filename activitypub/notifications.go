package activitypub

import (
	"errors"
	"sync"
	"time"

	"github.com/bihlink/shuttlecraft/storage"
)

// A Notification is one inbound federation event: the time it arrived and
// the raw payload that caused it.
type Notification struct {
	Time         int64          `json:"time"`
	Notification map[string]any `json:"notification"`
}

// Notifications is the append only notification log. The log is unbounded;
// callers that need rotation should substitute their own implementation
// behind the same methods.
type Notifications struct {
	mu    sync.Mutex
	store storage.Store
	now   func() time.Time
}

func NewNotifications(store storage.Store) *Notifications {
	return &Notifications{store: store, now: time.Now}
}

// Add appends payload to the log with the current time in epoch
// milliseconds and writes the whole log back.
func (n *Notifications) Add(payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	log, err := n.read()
	if err != nil {
		return err
	}
	log = append(log, Notification{
		Time:         n.now().UnixMilli(),
		Notification: payload,
	})
	return n.store.WriteDictionary(notificationsKey, log)
}

// All returns the log entries in append order.
func (n *Notifications) All() ([]Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.read()
}

func (n *Notifications) read() ([]Notification, error) {
	log := []Notification{}
	if err := n.store.ReadDictionary(notificationsKey, &log); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}
	return log, nil
}
