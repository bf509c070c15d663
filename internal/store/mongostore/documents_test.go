package mongostore

import (
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "100", "29.99", "-60", "12345678.01"} {
		d := decimal.RequireFromString(s)
		assert.True(t, fromDecimal128(toDecimal128(d)).Equal(d), s)
	}
}

func TestOrderDocument_KeepsLineOrderAndSnapshot(t *testing.T) {
	order := &domain.Order{
		ID:            "o-1",
		BuyerID:       "u-1",
		Total:         decimal.RequireFromString("60"),
		Status:        domain.OrderCompleted,
		PaymentStatus: domain.PaymentPaid,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lines: []domain.OrderLine{
			{ID: "l-1", ProductID: "p-1", Name: "rose", Price: decimal.RequireFromString("30"), Quantity: 2, Image: "rose.jpg"},
			{ID: "l-2", ProductID: "p-2", Name: "tulip", Price: decimal.RequireFromString("0.5"), Quantity: 1},
		},
	}

	got := newOrderDocument(order).model()

	require.Len(t, got.Lines, 2)
	assert.Equal(t, "p-1", got.Lines[0].ProductID)
	assert.Equal(t, 1, got.Lines[1].Position)
	assert.Equal(t, "o-1", got.Lines[1].OrderID)
	assert.True(t, got.Lines[1].Price.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, got.Total.Equal(order.Total))
	assert.Equal(t, order.CreatedAt, got.CreatedAt)
}
