// Package models defines the server-side entities. Field tags mirror the
// wire format the client consumes.
package models

import "time"

// User is an account row. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// List is a shopping list owned by a user.
type List struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Archived      bool      `json:"archived"`
	CategoryOrder []string  `json:"category_order,omitempty"`
	Shared        bool      `json:"shared"`
	ShareCode     string    `json:"share_code,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is a single entry on a list. Deleting a list cascades to its items
// at the database level.
type Item struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Checked   bool      `json:"is_checked"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
