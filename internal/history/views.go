package history

import (
	"time" // Timestamps

	"storefront/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// OrderView is an order as shown in the buyer's history
type OrderView struct {
	ID            string          `json:"_id"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []ItemView      `json:"items"`
}

// ItemView is one order line. Product carries the live catalog entry when it
// still exists, else the fields captured at purchase; Snapshot tells which.
type ItemView struct {
	ID       string          `json:"_id"`
	Product  ProductView     `json:"product"`
	Snapshot bool            `json:"snapshot"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // Unit price paid
}

// ProductView is the product side of an order line
type ProductView struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
}

func liveProduct(p domain.Product) ProductView {
	return ProductView{
		ID:       p.ID,
		Name:     p.Name,
		Image:    p.Image,
		Price:    p.Price,
		Category: p.CategoryID,
	}
}

func snapshotProduct(line domain.OrderLine) ProductView {
	return ProductView{
		ID:    line.ProductID,
		Name:  line.Name,
		Image: line.Image,
		Price: line.Price,
	}
}

// assemble joins each line of order against catalog
func assemble(order domain.Order, catalog map[string]domain.Product) OrderView {
	view := OrderView{
		ID:            order.ID,
		Total:         order.Total,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
		Items:         make([]ItemView, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		item := ItemView{
			ID:       line.ID,
			Quantity: line.Quantity,
			Price:    line.Price,
		}
		if product, ok := catalog[line.ProductID]; ok {
			item.Product = liveProduct(product)
		} else {
			item.Product = snapshotProduct(line)
			item.Snapshot = true
		}
		view.Items = append(view.Items, item)
	}
	return view
}

func productIDs(orders ...domain.Order) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, order := range orders {
		for _, line := range order.Lines {
			if _, ok := seen[line.ProductID]; ok {
				continue
			}
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
