// Package models defines the domain types shared by repositories, services,
// and handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemCategory distinguishes lost reports from found reports. Matching always
// compares an item against the corpus of the opposite category.
type ItemCategory string

// Item categories.
const (
	CategoryLost  ItemCategory = "lost"
	CategoryFound ItemCategory = "found"
)

// Opposite returns the category an item of c is matched against.
func (c ItemCategory) Opposite() ItemCategory {
	if c == CategoryLost {
		return CategoryFound
	}

	return CategoryLost
}

// Valid reports whether c is a known category.
func (c ItemCategory) Valid() bool {
	return c == CategoryLost || c == CategoryFound
}

// ItemStatus is the workflow state of an item. Lost items move
// lost -> found -> claimed through the mark-found and claim flows; found
// reports stay registered.
type ItemStatus string

// Item statuses.
const (
	StatusLost       ItemStatus = "lost"
	StatusFound      ItemStatus = "found"
	StatusClaimed    ItemStatus = "claimed"
	StatusRegistered ItemStatus = "registered"
)

// Item is a lost or found report. Only the identity and image reference
// matter to the matching engine; the rest is contact metadata for the
// notification and claim flows.
type Item struct {
	ID          uuid.UUID    `json:"id"`
	Category    ItemCategory `json:"category"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    *string      `json:"location,omitempty"`
	Latitude    *float64     `json:"latitude,omitempty"`
	Longitude   *float64     `json:"longitude,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	ImagePath   *string      `json:"image_path,omitempty"`
	Status      ItemStatus   `json:"status"`

	// Embedding is the stored feature vector for the item's image, present
	// once extraction has run. Nil means not yet computed or no image.
	// Not serialized; clients have no use for raw vectors.
	Embedding []float32 `json:"-"`

	FoundBy   *string    `json:"found_by,omitempty"`
	FoundAt   *time.Time `json:"found_at,omitempty"`
	ClaimedBy *string    `json:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasImage reports whether the item has an image to extract an embedding from.
func (i *Item) HasImage() bool {
	return i.ImagePath != nil && *i.ImagePath != ""
}

// HasCoordinates reports whether the item carries a geolocation, required for
// route generation.
func (i *Item) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// CreateItemRequest is the payload for registering a lost or found item.
// The image arrives separately as a multipart file part.
type CreateItemRequest struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=2000"`
	Location    *string  `json:"location,omitempty"  validate:"omitempty,max=255"`
	Latitude    *float64 `json:"latitude,omitempty"  validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Email       *string  `json:"email,omitempty"     validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty"     validate:"omitempty,max=20"`
}

// ListItemsFilters are the supported query filters for listing items.
type ListItemsFilters struct {
	Status *ItemStatus `form:"status"`
	Limit  int         `form:"limit"`
	Offset int         `form:"offset"`
}

// ItemWithScore pairs an item ID with a similarity score for the
// nearest-neighbor endpoint.
type ItemWithScore struct {
	ItemID uuid.UUID `json:"item_id"`
	Name   string    `json:"name"`
	Score  float64   `json:"score"`
}
