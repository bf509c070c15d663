package checkout

import (
	"context" // Context for store calls
	"errors"  // Error matching
	"time"    // Order timestamps

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/errs"   // Error kinds
	"storefront/internal/store"  // Store contract

	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

const (
	defaultRetries = 3               // Attempts on store conflicts
	notifyTimeout  = 5 * time.Second // Budget for post-commit hooks
)

// Notifier is told about each committed order after its transaction has
// committed. Failures are logged and never undo the purchase.
type Notifier interface {
	OrderCommitted(ctx context.Context, order *domain.Order) error
}

// HistoryInvalidator drops a buyer's cached order history
type HistoryInvalidator interface {
	Invalidate(ctx context.Context, buyerID string)
}

// Options tune a Committer
type Options struct {
	// Retries is the number of attempts when the store reports a conflict
	Retries int
	// RejectTotalMismatch refuses commits whose declared total differs from
	// the sum of current line prices. Off by default: the declared total is
	// debited as sent and the mismatch is only logged.
	RejectTotalMismatch bool
	// History is invalidated for the buyer after every successful commit
	History  HistoryInvalidator
	Notifier Notifier
	Now      func() time.Time
}

// Receipt is the result of a successful commit
type Receipt struct {
	OrderID          string          `json:"orderId"`          // New order
	RemainingBalance decimal.Decimal `json:"remainingBalance"` // Balance after the debit
	Order            *domain.Order   `json:"-"`                // Persisted order, for hooks
}

// Committer performs the all-or-nothing purchase transition
type Committer struct {
	store     store.Store
	validator *Validator
	opts      Options
}

// NewCommitter returns a Committer writing through s
func NewCommitter(s store.Store, v *Validator, opts Options) *Committer {
	if opts.Retries < 1 {
		opts.Retries = defaultRetries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Committer{store: s, validator: v, opts: opts}
}

// Commit debits declaredTotal from the buyer, takes every line out of stock
// and records the order, all in one transaction. On any error nothing is
// changed. Stock, balance and input faults are returned as typed errors;
// anything else is wrapped in errs.ErrStoreFailure.
func (c *Committer) Commit(ctx context.Context, buyerID string, lines []domain.CartLine, declaredTotal decimal.Decimal) (*Receipt, error) {
	switch {
	case buyerID == "":
		return nil, ErrMissingBuyer
	case len(lines) == 0:
		return nil, ErrEmptyCart
	case declaredTotal.IsNegative():
		return nil, ErrNegativeTotal
	case !domain.ValidMoney(declaredTotal):
		return nil, ErrInvalidTotal
	}

	log := logrus.WithFields(logrus.Fields{
		"buyer_id": buyerID,
		"total":    declaredTotal.String(),
		"lines":    len(lines),
	})

	var (
		receipt *Receipt
		err     error
	)
	for attempt := 1; ; attempt++ {
		receipt, err = c.commitOnce(ctx, buyerID, lines, declaredTotal)
		if err == nil || !errors.Is(err, store.ErrConflict) || attempt >= c.opts.Retries || ctx.Err() != nil {
			break
		}
		log.WithField("attempt", attempt).Warn("Purchase commit conflicted, retrying")
	}

	if err != nil {
		if errs.IsBusiness(err) {
			log.WithField("reason", err.Error()).Info("Purchase rejected")
			return nil, err
		}
		log.WithField("error", err.Error()).Error("Purchase commit failed")
		return nil, storeFailure(err)
	}

	log.WithFields(logrus.Fields{
		"order_id":          receipt.OrderID,
		"remaining_balance": receipt.RemainingBalance.String(),
	}).Info("Purchase committed")
	c.invalidate(ctx, buyerID)
	c.notify(ctx, receipt.Order)
	return receipt, nil
}

func (c *Committer) commitOnce(ctx context.Context, buyerID string, lines []domain.CartLine, total decimal.Decimal) (*Receipt, error) {
	var receipt *Receipt
	err := c.store.Transaction(ctx, func(tx store.Querier) error {
		buyer, err := tx.GetUserForUpdate(ctx, buyerID) // Lock the buyer first
		if errors.Is(err, store.ErrNotFound) {
			return ErrBuyerNotFound
		}
		if err != nil {
			return err
		}
		if buyer.Balance.LessThan(total) {
			return &BalanceError{Balance: buyer.Balance, Required: total}
		}

		orderLines := make([]domain.OrderLine, 0, len(lines))
		computed := decimal.Zero // Sum of current line prices
		for _, line := range lines {
			product, err := c.validator.reserve(ctx, tx, line)
			if err != nil {
				return err
			}
			// Snapshot from the catalog row, never from the client copy
			orderLine := domain.OrderLine{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  line.Quantity,
				Image:     product.Image,
			}
			computed = computed.Add(orderLine.Subtotal())
			orderLines = append(orderLines, orderLine)
		}

		if !computed.Equal(total) {
			logrus.WithFields(logrus.Fields{
				"buyer_id": buyerID,
				"declared": total.String(),
				"computed": computed.String(),
			}).Warn("Declared total differs from current line prices")
			if c.opts.RejectTotalMismatch {
				return &TotalMismatchError{Declared: total, Computed: computed}
			}
		}

		if err := tx.DebitBalance(ctx, buyer.ID, total); err != nil { // Guarded by balance >= total
			if errors.Is(err, store.ErrInsufficientBalance) {
				return &BalanceError{Balance: buyer.Balance, Required: total}
			}
			return err
		}

		order := &domain.Order{
			BuyerID:       buyer.ID,
			Total:         total,
			Status:        domain.OrderCompleted,
			PaymentStatus: domain.PaymentPaid,
			Lines:         orderLines,
			CreatedAt:     c.opts.Now().UTC(), // Commit time
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		receipt = &Receipt{
			OrderID:          order.ID,
			RemainingBalance: buyer.Balance.Sub(total),
			Order:            order,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *Committer) invalidate(ctx context.Context, buyerID string) {
	if c.opts.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout) // Outlive the request
	defer cancel()
	c.opts.History.Invalidate(ctx, buyerID)
}

func (c *Committer) notify(ctx context.Context, order *domain.Order) {
	if c.opts.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout) // Outlive the request
	defer cancel()
	if err := c.opts.Notifier.OrderCommitted(ctx, order); err != nil {
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("Order notification failed")
	}
}
