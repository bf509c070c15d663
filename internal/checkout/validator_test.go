package checkout_test

import (
	"context"
	"testing"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/errs"
	"storefront/internal/store"
	"storefront/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllAvailable(t *testing.T) {
	s := storetest.NewGormStore(t)
	seller := storetest.SeedUser(t, s, domain.RoleSeller, "0")
	rose := storetest.SeedProduct(t, s, seller.ID, "rose", "30", 5)
	lily := storetest.SeedProduct(t, s, seller.ID, "lily", "12.5", 1)

	res, err := checkout.NewValidator().Validate(context.Background(), s, []domain.CartLine{
		{ProductID: rose.ID, Quantity: 5},
		{ProductID: lily.ID, Quantity: 1},
	})

	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Shortages)
	require.Len(t, res.Priced, 2)
	assert.Equal(t, "rose", res.Priced[0].Name)
	assert.Equal(t, 5, res.Priced[0].Available)
	assert.True(t, res.Priced[1].Price.Equal(lily.Price))
}

func TestValidate_ReportsShortagesWithoutSideEffects(t *testing.T) {
	s := storetest.NewGormStore(t)
	ctx := context.Background()
	seller := storetest.SeedUser(t, s, domain.RoleSeller, "0")
	rose := storetest.SeedProduct(t, s, seller.ID, "rose", "30", 3)
	tulip := storetest.SeedProduct(t, s, seller.ID, "tulip", "4", 8)
	missing := domain.NewID()

	res, err := checkout.NewValidator().Validate(ctx, s, []domain.CartLine{
		{ProductID: rose.ID, Quantity: 10},
		{ProductID: tulip.ID, Quantity: 2},
		{ProductID: missing, Quantity: 1},
		{ProductID: tulip.ID, Quantity: 0},
		{ProductID: tulip.ID, Quantity: -4},
	})

	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, []checkout.Shortage{
		{ProductID: rose.ID, Name: "rose", Available: 3, Requested: 10, Reason: checkout.ReasonInsufficientStock},
		{ProductID: missing, Requested: 1, Reason: checkout.ReasonNotFound},
		{ProductID: tulip.ID, Requested: 0, Reason: checkout.ReasonInvalidQuantity},
		{ProductID: tulip.ID, Requested: -4, Reason: checkout.ReasonInvalidQuantity},
	}, res.Shortages)
	require.Len(t, res.Priced, 1)
	assert.Equal(t, tulip.ID, res.Priced[0].ProductID)

	for _, p := range []*domain.Product{rose, tulip} {
		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Quantity, got.Quantity)
	}
}

func TestValidate_EmptyCart(t *testing.T) {
	s := storetest.NewGormStore(t)

	_, err := checkout.NewValidator().Validate(context.Background(), s, nil)

	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestValidate_InsideCallerTransaction(t *testing.T) {
	s := storetest.NewGormStore(t)
	ctx := context.Background()
	seller := storetest.SeedUser(t, s, domain.RoleSeller, "0")
	rose := storetest.SeedProduct(t, s, seller.ID, "rose", "30", 2)

	var res *checkout.Result
	err := s.Transaction(ctx, func(tx store.Querier) error {
		var err error
		res, err = checkout.NewValidator().Validate(ctx, tx, []domain.CartLine{{ProductID: rose.ID, Quantity: 2}})
		return err
	})

	require.NoError(t, err)
	assert.True(t, res.OK)
}
