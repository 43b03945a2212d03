// Package domain contains the record schemas the library desk exchanges with the backend.
package domain

import "encoding/json"

// Keyed is implemented by every record held in a collection.
type Keyed interface {
	Key() ID
}

// Book is a catalog entry.
type Book struct {
	ID          ID     `json:"id,omitempty" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
	Available   int    `json:"available" validate:"gte=0"`
}

// Key returns the book identifier.
func (b Book) Key() ID { return b.ID }

// UnmarshalJSON accepts "bookId" as an alias for "id".
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var wire struct {
		plain
		BookID ID `json:"bookId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = Book(wire.plain)
	b.ID = firstID(b.ID, wire.BookID)
	return nil
}

// Category is a top-level catalog category with its subcategories.
type Category struct {
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Subcategories []Subcategory `json:"subCategories,omitempty"`
}

// Subcategory is the second level of the catalog taxonomy.
type Subcategory struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryShare is one slice of the category distribution report.
type CategoryShare struct {
	Category string `json:"category" validate:"required"`
	Count    int    `json:"count" validate:"gte=0"`
}
