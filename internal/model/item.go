// Package model provides the data structures shared by the sync cache,
// the local stores, and the remote API client.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Importance is the priority level of a todo item.
type Importance string

const (
	// ImportanceLow marks items that can wait.
	ImportanceLow Importance = "low"
	// ImportanceBasic is the default priority.
	ImportanceBasic Importance = "basic"
	// ImportanceImportant marks items that should be done first.
	ImportanceImportant Importance = "important"
)

// Importances lists all valid importance values in ascending order.
var Importances = []Importance{ImportanceLow, ImportanceBasic, ImportanceImportant}

// Valid reports whether i is one of the known importance values.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceLow, ImportanceBasic, ImportanceImportant:
		return true
	}
	return false
}

// ParseImportance converts a string into an Importance.
func ParseImportance(s string) (Importance, error) {
	i := Importance(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown importance %q (want low, basic, or important)", s)
	}
	return i, nil
}

// Item is the unit of synchronization: a single todo entry.
//
// ID and LastUpdatedBy are immutable for the lifetime of the item.
// ID is the sole key used by the stores and by the cache's
// deduplication logic.
type Item struct {
	ID            string
	Text          string
	Importance    Importance
	Deadline      *time.Time
	Done          bool
	CreatedAt     time.Time
	ChangedAt     time.Time
	Color         *string // hex string, e.g. "#FF0000"
	LastUpdatedBy string
}

// New creates an item with a fresh UUID, default importance, and both
// timestamps set to now. deviceID identifies the creating device and
// may be empty, in which case "unknown" is recorded.
func New(text, deviceID string) Item {
	if deviceID == "" {
		deviceID = "unknown"
	}
	now := time.Now().Truncate(time.Second)
	return Item{
		ID:            uuid.NewString(),
		Text:          text,
		Importance:    ImportanceBasic,
		CreatedAt:     now,
		ChangedAt:     now,
		LastUpdatedBy: deviceID,
	}
}

// Validate checks that the item has valid field values.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("id is required")
	}
	if it.Text == "" {
		return fmt.Errorf("text is required")
	}
	if !it.Importance.Valid() {
		return fmt.Errorf("unknown importance %q", it.Importance)
	}
	if it.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	if it.ChangedAt.IsZero() {
		return fmt.Errorf("changedAt is required")
	}
	return nil
}

// Equal reports whether two items are equal in every field.
func (it Item) Equal(other Item) bool {
	if it.ID != other.ID ||
		it.Text != other.Text ||
		it.Importance != other.Importance ||
		it.Done != other.Done ||
		it.LastUpdatedBy != other.LastUpdatedBy {
		return false
	}
	if !it.CreatedAt.Equal(other.CreatedAt) || !it.ChangedAt.Equal(other.ChangedAt) {
		return false
	}
	if !timePtrEqual(it.Deadline, other.Deadline) {
		return false
	}
	return strPtrEqual(it.Color, other.Color)
}

// ItemsEqual reports whether two collections hold equal items in the
// same order.
func ItemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// itemJSON is the wire form of Item. Timestamps travel as unix seconds;
// deadline and color are omitted when absent. The same encoding is used
// by the remote API and the record store.
type itemJSON struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Importance    string  `json:"importance"`
	Deadline      *int64  `json:"deadline,omitempty"`
	Done          bool    `json:"done"`
	CreatedAt     int64   `json:"createdAt"`
	ChangedAt     int64   `json:"changedAt"`
	Color         *string `json:"color,omitempty"`
	LastUpdatedBy string  `json:"lastUpdatedBy"`
}

// MarshalJSON implements json.Marshaler.
func (it Item) MarshalJSON() ([]byte, error) {
	w := itemJSON{
		ID:            it.ID,
		Text:          it.Text,
		Importance:    string(it.Importance),
		Done:          it.Done,
		CreatedAt:     it.CreatedAt.Unix(),
		ChangedAt:     it.ChangedAt.Unix(),
		Color:         it.Color,
		LastUpdatedBy: it.LastUpdatedBy,
	}
	if it.Deadline != nil {
		sec := it.Deadline.Unix()
		w.Deadline = &sec
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	importance, err := ParseImportance(w.Importance)
	if err != nil {
		return err
	}
	*it = Item{
		ID:            w.ID,
		Text:          w.Text,
		Importance:    importance,
		Done:          w.Done,
		CreatedAt:     time.Unix(w.CreatedAt, 0),
		ChangedAt:     time.Unix(w.ChangedAt, 0),
		Color:         w.Color,
		LastUpdatedBy: w.LastUpdatedBy,
	}
	if w.Deadline != nil {
		d := time.Unix(*w.Deadline, 0)
		it.Deadline = &d
	}
	return nil
}
