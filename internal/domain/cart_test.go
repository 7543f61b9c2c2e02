package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AssignToUser(t *testing.T) {
	userID := uuid.New()
	cart := domain.NewCart(nil, now)
	later := now.Add(time.Minute)

	changed, err := cart.AssignToUser(userID, later)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, cart.IsOwnedBy(userID))
	assert.Equal(t, later, cart.UpdatedAt)

	changed, err = cart.AssignToUser(userID, later.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, later, cart.UpdatedAt)

	_, err = cart.AssignToUser(uuid.New(), later)
	assertCode(t, err, "Cart.AlreadyAssigned")
	assert.True(t, cart.IsOwnedBy(userID))

	_, err = cart.AssignToUser(uuid.Nil, later)
	assertCode(t, err, "Cart.InvalidUser")
}

func TestCart_AddItem(t *testing.T) {
	cart := domain.NewCart(nil, now)
	productID := uuid.New()
	variantID := uuid.New()

	first, err := cart.AddItem(productID, nil, 2, now)
	require.NoError(t, err)

	merged, err := cart.AddItem(productID, nil, 3, now)
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	variant, err := cart.AddItem(productID, &variantID, 1, now)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, variant.ID)

	again, err := cart.AddItem(productID, lo.ToPtr(variantID), 1, now)
	require.NoError(t, err)
	assert.Equal(t, variant.ID, again.ID)
	assert.Equal(t, 2, again.Quantity)

	assert.Len(t, cart.Items, 2)

	_, err = cart.AddItem(productID, nil, 0, now)
	assertCode(t, err, "Cart.InvalidQuantity")
	_, err = cart.AddItem(uuid.Nil, nil, 1, now)
	assertCode(t, err, "Cart.InvalidProduct")
}

func TestCart_UpdateAndRemoveItem(t *testing.T) {
	cart := domain.NewCart(lo.ToPtr(uuid.New()), now)
	item, err := cart.AddItem(uuid.New(), nil, 4, now)
	require.NoError(t, err)

	updated, err := cart.UpdateItemQuantity(item.ID, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.True(t, cart.HasItem(item.ID))

	_, err = cart.UpdateItemQuantity(item.ID, -1, now)
	assertCode(t, err, "Cart.InvalidQuantity")

	_, err = cart.UpdateItemQuantity(uuid.New(), 1, now)
	assertCode(t, err, "Cart.ItemNotFound")

	require.NoError(t, cart.RemoveItem(item.ID, now))
	assert.Empty(t, cart.Items)
	assertCode(t, cart.RemoveItem(item.ID, now), "Cart.ItemNotFound")
}

func TestCart_MarkConverted(t *testing.T) {
	cart := domain.NewCart(lo.ToPtr(uuid.New()), now)
	_, err := cart.AddItem(uuid.New(), nil, 1, now)
	require.NoError(t, err)

	orderID := uuid.New()
	cart.MarkConverted(orderID, now)

	assert.Empty(t, cart.Items)
	converted, _ := cart.Metadata.GetString(domain.MetaConvertedOrderID)
	assert.Equal(t, orderID.String(), converted)
}

func TestCart_VisibleTo(t *testing.T) {
	ownerID := uuid.New()
	owned := domain.NewCart(&ownerID, now)
	anonymous := domain.NewCart(nil, now)

	tests := []struct {
		name          string
		actor         domain.Actor
		seesOwned     bool
		seesAnonymous bool
	}{
		{name: "owner", actor: domain.User(ownerID), seesOwned: true},
		{name: "another user", actor: domain.User(uuid.New())},
		{name: "anonymous", actor: domain.Anonymous(), seesAnonymous: true},
		{name: "admin", actor: domain.User(uuid.New(), domain.RoleAdmin)},
		{name: "owner with manager role", actor: domain.User(ownerID, domain.RoleManager), seesOwned: true},
		{name: "system", actor: domain.System(), seesOwned: true, seesAnonymous: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.seesOwned, owned.VisibleTo(tt.actor))
			assert.Equal(t, tt.seesAnonymous, anonymous.VisibleTo(tt.actor))
		})
	}
}
