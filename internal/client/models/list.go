// Package models defines the client-side entity shapes, the local record
// wrapper used for offline bookkeeping, and the pure conflict-resolution
// rules applied during synchronization.
package models

import "time"

// List is a shopping list owned by a single user.
type List struct {
	// ID is a globally unique identifier. Client-generated (UUID) when the
	// list is created offline, otherwise assigned by the server.
	ID string `json:"id"`

	// OwnerID scopes the list to its owning user.
	OwnerID string `json:"owner_id"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Archived hides the list from active views without deleting it.
	Archived bool `json:"archived"`

	// CategoryOrder is the user-defined display order of category names.
	CategoryOrder []string `json:"category_order,omitempty"`

	// Shared marks the list as visible to holders of ShareCode.
	Shared    bool   `json:"shared"`
	ShareCode string `json:"share_code,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every mutation, local or remote, and is the
	// sole tie-breaker for conflicts.
	UpdatedAt time.Time `json:"updated_at"`
}
