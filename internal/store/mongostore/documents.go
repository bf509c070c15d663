package mongostore

import (
	"time" // Timestamps

	"storefront/internal/domain" // Importing domain models

	"github.com/shopspring/decimal"              // Exact decimal arithmetic
	"go.mongodb.org/mongo-driver/bson/primitive" // Decimal128
)

type productDocument struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Quantity    int                  `bson:"quantity"`
	SellerID    string               `bson:"userId"`
	CategoryID  string               `bson:"category"`
	Image       string               `bson:"image"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type categoryDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"catName"`
	CreatedAt time.Time `bson:"createdAt"`
}

type userDocument struct {
	ID             string               `bson:"_id"`
	UserName       string               `bson:"userName"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password,omitempty"`
	LegacyPassword string               `bson:"passwrd,omitempty"`
	Role           string               `bson:"userType"`
	Balance        primitive.Decimal128 `bson:"balance"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

// Orders embed their lines, one document per order
type orderDocument struct {
	ID            string               `bson:"_id"`
	BuyerID       string               `bson:"userId"`
	Total         primitive.Decimal128 `bson:"total"`
	Status        string               `bson:"status"`
	PaymentStatus string               `bson:"paymentStatus"`
	Lines         []lineDocument       `bson:"cart"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type lineDocument struct {
	ID        string               `bson:"_id"`
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
	Image     string               `bson:"image,omitempty"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	// decimal.String never yields a form ParseDecimal128 rejects
	v, _ := primitive.ParseDecimal128(d.String())
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func newProductDocument(p *domain.Product) productDocument {
	return productDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       toDecimal128(p.Price),
		Quantity:    p.Quantity,
		SellerID:    p.SellerID,
		CategoryID:  p.CategoryID,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDocument) model() domain.Product {
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Quantity:    d.Quantity,
		SellerID:    d.SellerID,
		CategoryID:  d.CategoryID,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func newCategoryDocument(c *domain.Category) categoryDocument {
	return categoryDocument{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func (d categoryDocument) model() domain.Category {
	return domain.Category{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:             u.ID,
		UserName:       u.UserName,
		Email:          u.Email,
		Password:       u.Password,
		LegacyPassword: u.LegacyPassword,
		Role:           u.Role,
		Balance:        toDecimal128(u.Balance),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (d userDocument) model() domain.User {
	return domain.User{
		ID:             d.ID,
		UserName:       d.UserName,
		Email:          d.Email,
		Password:       d.Password,
		LegacyPassword: d.LegacyPassword,
		Role:           d.Role,
		Balance:        fromDecimal128(d.Balance),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func newOrderDocument(o *domain.Order) orderDocument {
	lines := make([]lineDocument, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = lineDocument{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     toDecimal128(l.Price),
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}
	return orderDocument{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		Total:         toDecimal128(o.Total),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Lines:         lines,
		CreatedAt:     o.CreatedAt,
	}
}

func (d orderDocument) model() domain.Order {
	lines := make([]domain.OrderLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = domain.OrderLine{
			ID:        l.ID,
			OrderID:   d.ID,
			Position:  i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     fromDecimal128(l.Price),
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}
	return domain.Order{
		ID:            d.ID,
		BuyerID:       d.BuyerID,
		Total:         fromDecimal128(d.Total),
		Status:        d.Status,
		PaymentStatus: d.PaymentStatus,
		Lines:         lines,
		CreatedAt:     d.CreatedAt,
	}
}
