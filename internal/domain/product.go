package domain

import "github.com/google/uuid"

// Product is the catalog row read at checkout. The catalog is owned elsewhere.
type Product struct {
	ID     uuid.UUID
	Name   string
	SKU    string
	Slug   string
	Price  Money
	Active bool
}
