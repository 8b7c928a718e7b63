package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestItem_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		item    Item
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid item",
			item: Item{
				ID:            "a1",
				Text:          "Buy milk",
				Importance:    ImportanceBasic,
				CreatedAt:     now,
				ChangedAt:     now,
				LastUpdatedBy: "device-1",
			},
			wantErr: false,
		},
		{
			name: "missing id",
			item: Item{
				Text:       "Buy milk",
				Importance: ImportanceBasic,
				CreatedAt:  now,
				ChangedAt:  now,
			},
			wantErr: true,
			errMsg:  "id is required",
		},
		{
			name: "missing text",
			item: Item{
				ID:         "a1",
				Importance: ImportanceBasic,
				CreatedAt:  now,
				ChangedAt:  now,
			},
			wantErr: true,
			errMsg:  "text is required",
		},
		{
			name: "unknown importance",
			item: Item{
				ID:         "a1",
				Text:       "Buy milk",
				Importance: Importance("urgent"),
				CreatedAt:  now,
				ChangedAt:  now,
			},
			wantErr: true,
			errMsg:  "unknown importance",
		},
		{
			name: "missing createdAt",
			item: Item{
				ID:         "a1",
				Text:       "Buy milk",
				Importance: ImportanceBasic,
				ChangedAt:  now,
			},
			wantErr: true,
			errMsg:  "createdAt is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want substring %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	item := New("Buy milk", "device-1")

	if item.ID == "" {
		t.Error("New() should generate an id")
	}
	if item.Importance != ImportanceBasic {
		t.Errorf("New() importance = %q, want %q", item.Importance, ImportanceBasic)
	}
	if item.Done {
		t.Error("New() item should not be done")
	}
	if item.LastUpdatedBy != "device-1" {
		t.Errorf("New() lastUpdatedBy = %q, want device-1", item.LastUpdatedBy)
	}
	if err := item.Validate(); err != nil {
		t.Errorf("New() produced invalid item: %v", err)
	}

	other := New("Buy milk", "")
	if other.LastUpdatedBy != "unknown" {
		t.Errorf("New() with empty device = %q, want unknown", other.LastUpdatedBy)
	}
	if other.ID == item.ID {
		t.Error("New() ids should be unique")
	}
}

func TestItem_JSONRoundTrip(t *testing.T) {
	deadline := time.Unix(1700000000, 0)
	color := "#FF5533"
	item := Item{
		ID:            "a1",
		Text:          "Buy milk",
		Importance:    ImportanceImportant,
		Deadline:      &deadline,
		Done:          true,
		CreatedAt:     time.Unix(1690000000, 0),
		ChangedAt:     time.Unix(1695000000, 0),
		Color:         &color,
		LastUpdatedBy: "device-1",
	}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var got Item
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	if !got.Equal(item) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, item)
	}
}

func TestItem_JSONWireFormat(t *testing.T) {
	item := Item{
		ID:            "a1",
		Text:          "Buy milk",
		Importance:    ImportanceBasic,
		CreatedAt:     time.Unix(1690000000, 0),
		ChangedAt:     time.Unix(1690000000, 0),
		LastUpdatedBy: "device-1",
	}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() into map failed: %v", err)
	}

	// Timestamps are unix seconds on the wire.
	if got := raw["createdAt"]; got != float64(1690000000) {
		t.Errorf("createdAt on wire = %v, want 1690000000", got)
	}
	// Absent optionals are omitted entirely.
	if _, ok := raw["deadline"]; ok {
		t.Error("nil deadline should be omitted from the wire form")
	}
	if _, ok := raw["color"]; ok {
		t.Error("nil color should be omitted from the wire form")
	}
}

func TestItem_UnmarshalRejectsUnknownImportance(t *testing.T) {
	data := []byte(`{"id":"a1","text":"x","importance":"critical","done":false,"createdAt":1,"changedAt":1,"lastUpdatedBy":"d"}`)

	var item Item
	if err := json.Unmarshal(data, &item); err == nil {
		t.Error("Unmarshal() should reject unknown importance values")
	}
}

func TestItemsEqual(t *testing.T) {
	a := New("one", "d")
	b := New("two", "d")

	if !ItemsEqual([]Item{a, b}, []Item{a, b}) {
		t.Error("identical collections should be equal")
	}
	if ItemsEqual([]Item{a, b}, []Item{b, a}) {
		t.Error("order matters for collection equality")
	}
	if ItemsEqual([]Item{a}, []Item{a, b}) {
		t.Error("collections of different length should not be equal")
	}

	changed := a
	changed.Done = true
	if ItemsEqual([]Item{a}, []Item{changed}) {
		t.Error("field change should break collection equality")
	}
}
