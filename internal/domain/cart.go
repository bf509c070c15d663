package domain

import "github.com/shopspring/decimal"

// CartLine is a transient purchase proposal held by the client. Price, Name
// and Image are display copies only; nothing authoritative is read from them.
// A Quantity of zero or less marks a malformed or non-positive request.
type CartLine struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Name      string
	Image     string
}
