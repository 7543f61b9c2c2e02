package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	ID       uuid.UUID
	UserID   *uuid.UUID
	Items    []CartItem
	Metadata Metadata
	Version  int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart creates an anonymous cart when userID is nil.
func NewCart(userID *uuid.UUID, now time.Time) Cart {
	return Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Metadata:  Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsAnonymous() bool {
	return c.UserID == nil
}

func (c *Cart) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID != nil && *c.UserID == userID
}

// VisibleTo reports whether the actor may see and mutate the cart.
// Authenticated users only see their own cart, roles included; anonymous
// callers only anonymous carts. The system actor sees every cart.
func (c *Cart) VisibleTo(actor Actor) bool {
	switch {
	case actor.IsSystem():
		return true
	case actor.IsAuthenticated():
		return c.IsOwnedBy(actor.UserID)
	default:
		return c.IsAnonymous()
	}
}

// AssignToUser reports whether ownership changed; assigning to the current
// owner is a successful no-op. The single-cart-per-user rule needs the
// repository and is checked by the caller.
func (c *Cart) AssignToUser(userID uuid.UUID, now time.Time) (bool, error) {
	if userID == uuid.Nil {
		return false, Validation("Cart.InvalidUser", "User id is required")
	}
	if c.IsOwnedBy(userID) {
		return false, nil
	}
	if c.UserID != nil {
		return false, Conflict("Cart.AlreadyAssigned", "Cart is already assigned to another user")
	}

	c.UserID = &userID
	c.UpdatedAt = now
	return true, nil
}

// AddItem merges into the line with the same product and variant.
func (c *Cart) AddItem(productID uuid.UUID, variantID *uuid.UUID, quantity int, now time.Time) (CartItem, error) {
	if productID == uuid.Nil {
		return CartItem{}, Validation("Cart.InvalidProduct", "Product id is required")
	}
	if quantity <= 0 {
		return CartItem{}, Validation("Cart.InvalidQuantity", "Quantity must be greater than zero")
	}

	for i := range c.Items {
		item := &c.Items[i]
		if item.ProductID == productID && sameVariant(item.VariantID, variantID) {
			item.Quantity += quantity
			item.UpdatedAt = now
			c.UpdatedAt = now
			return *item, nil
		}
	}

	item := CartItem{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now

	return item, nil
}

// UpdateItemQuantity accepts zero; the line stays in the cart.
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, quantity int, now time.Time) (CartItem, error) {
	if quantity < 0 {
		return CartItem{}, Validation("Cart.InvalidQuantity", "Quantity cannot be negative")
	}

	item, ok := c.findItem(itemID)
	if !ok {
		return CartItem{}, NotFound("Cart.ItemNotFound", fmt.Sprintf("Cart item %s was not found", itemID))
	}

	item.Quantity = quantity
	item.UpdatedAt = now
	c.UpdatedAt = now

	return *item, nil
}

func (c *Cart) RemoveItem(itemID uuid.UUID, now time.Time) error {
	for i, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = now
			return nil
		}
	}
	return NotFound("Cart.ItemNotFound", fmt.Sprintf("Cart item %s was not found", itemID))
}

func (c *Cart) HasItem(itemID uuid.UUID) bool {
	_, ok := c.findItem(itemID)
	return ok
}

// MarkConverted empties the cart after checkout and remembers the order.
func (c *Cart) MarkConverted(orderID uuid.UUID, now time.Time) {
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}
	c.Items = nil
	c.Metadata.SetString(MetaConvertedOrderID, orderID.String())
	c.UpdatedAt = now
}

func (c *Cart) findItem(itemID uuid.UUID) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
