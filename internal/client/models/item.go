package models

import "time"

// Unit classifies the measurement unit of an item amount.
type Unit string

const (
	UnitPiece      Unit = "pcs"
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitPack       Unit = "pack"
	UnitBottle     Unit = "bottle"
	UnitCan        Unit = "can"
)

// DefaultUnit is used when an item is created without an explicit unit.
const DefaultUnit = UnitPiece

// DefaultCategory groups items that were created without a category.
const DefaultCategory = "Other"

// Units lists all known measurement units.
func Units() []Unit {
	return []Unit{UnitPiece, UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitPack, UnitBottle, UnitCan}
}

// Valid reports whether u is one of the known measurement units.
func (u Unit) Valid() bool {
	for _, known := range Units() {
		if u == known {
			return true
		}
	}
	return false
}

// Item is a single entry on a shopping list.
type Item struct {
	// ID is a globally unique identifier, generated client-side when the
	// item is created offline.
	ID string `json:"id"`

	// ListID references the owning list. Every item belongs to exactly
	// one list.
	ListID string `json:"list_id"`

	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`

	// Category is a free-form label used for grouping and sorting.
	Category string `json:"category"`

	Notes    string `json:"notes,omitempty"`
	ImageURL string `json:"image_url,omitempty"`

	Checked bool `json:"is_checked"`

	// Position orders the item within its category/list.
	Position int `json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize fills in defaults for optional fields left empty by the caller:
// amount 1, the default unit, the default category, position 0.
func (i *Item) Normalize() {
	if i.Amount <= 0 {
		i.Amount = 1
	}
	if i.Unit == "" || !i.Unit.Valid() {
		i.Unit = DefaultUnit
	}
	if i.Category == "" {
		i.Category = DefaultCategory
	}
	if i.Position < 0 {
		i.Position = 0
	}
}
