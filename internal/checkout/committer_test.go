package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/errs"
	"storefront/internal/store"
	"storefront/internal/store/gormstore"
	"storefront/internal/store/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CommitterTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *gormstore.Store
	seller    *domain.User
	committer *checkout.Committer
}

func (s *CommitterTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.NewGormStore(s.T())
	s.seller = storetest.SeedUser(s.T(), s.store, domain.RoleSeller, "0")
	s.committer = checkout.NewCommitter(s.store, checkout.NewValidator(), checkout.Options{})
}

func TestCommitterTestSuite(t *testing.T) {
	suite.Run(t, new(CommitterTestSuite))
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *CommitterTestSuite) quantity(id string) int {
	p, err := s.store.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	return p.Quantity
}

func (s *CommitterTestSuite) balance(id string) decimal.Decimal {
	u, err := s.store.GetUser(s.ctx, id)
	s.Require().NoError(err)
	return u.Balance
}

func (s *CommitterTestSuite) orders(buyerID string) []domain.Order {
	orders, err := s.store.ListOrdersByBuyer(s.ctx, buyerID)
	s.Require().NoError(err)
	return orders
}

func (s *CommitterTestSuite) TestCommit_Succeeds() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	p1 := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	receipt, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{
		{ProductID: p1.ID, Quantity: 2, Price: dec("30")},
	}, dec("60"))

	s.Require().NoError(err)
	s.NotEmpty(receipt.OrderID)
	s.True(receipt.RemainingBalance.Equal(dec("40")))
	s.Equal(3, s.quantity(p1.ID))
	s.True(s.balance(buyer.ID).Equal(dec("40")))

	orders := s.orders(buyer.ID)
	s.Require().Len(orders, 1)
	s.Equal(receipt.OrderID, orders[0].ID)
	s.True(orders[0].Total.Equal(dec("60")))
	s.Equal(domain.OrderCompleted, orders[0].Status)
	s.Equal(domain.PaymentPaid, orders[0].PaymentStatus)
	s.Require().Len(orders[0].Lines, 1)
	s.Equal(2, orders[0].Lines[0].Quantity)
}

func (s *CommitterTestSuite) TestCommit_InsufficientStockLeavesStateUnchanged() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	p1 := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 3)

	_, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: p1.ID, Quantity: 10}}, dec("30"))

	s.Require().ErrorIs(err, errs.ErrInsufficientStock)
	var shortage *checkout.ShortageError
	s.Require().True(errors.As(err, &shortage))
	s.Equal(p1.ID, shortage.ProductID)
	s.Equal(3, shortage.Available)
	s.Equal(10, shortage.Requested)

	s.Equal(3, s.quantity(p1.ID))
	s.True(s.balance(buyer.ID).Equal(dec("100")))
	s.Empty(s.orders(buyer.ID))
}

func (s *CommitterTestSuite) TestCommit_InsufficientBalance() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "10")
	p1 := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "25", 5)

	_, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: p1.ID, Quantity: 2}}, dec("50"))

	s.Require().ErrorIs(err, errs.ErrInsufficientBalance)
	var balanceErr *checkout.BalanceError
	s.Require().True(errors.As(err, &balanceErr))
	s.True(balanceErr.Balance.Equal(dec("10")))
	s.True(balanceErr.Required.Equal(dec("50")))
	s.Equal(5, s.quantity(p1.ID))
	s.Empty(s.orders(buyer.ID))
}

func (s *CommitterTestSuite) TestCommit_LaterLineFailureRollsBackEarlierLines() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	tulip := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "tulip", "10", 1)

	_, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{
		{ProductID: rose.ID, Quantity: 4},
		{ProductID: tulip.ID, Quantity: 2},
	}, dec("60"))

	s.Require().ErrorIs(err, errs.ErrInsufficientStock)
	s.Equal(5, s.quantity(rose.ID))
	s.Equal(1, s.quantity(tulip.ID))
	s.True(s.balance(buyer.ID).Equal(dec("100")))
	s.Empty(s.orders(buyer.ID))
}

func (s *CommitterTestSuite) TestCommit_SameProductTwiceCannotOversell() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)

	_, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{
		{ProductID: rose.ID, Quantity: 3},
		{ProductID: rose.ID, Quantity: 3},
	}, dec("60"))

	s.Require().ErrorIs(err, errs.ErrInsufficientStock)
	var shortage *checkout.ShortageError
	s.Require().True(errors.As(err, &shortage))
	s.Equal(2, shortage.Available)
	s.Equal(5, s.quantity(rose.ID))
}

func (s *CommitterTestSuite) TestCommit_InputFaults() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	line := []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}

	cases := []struct {
		name    string
		buyerID string
		lines   []domain.CartLine
		total   decimal.Decimal
		kind    error
	}{
		{"missing buyer id", "", line, dec("10"), errs.ErrInvalidInput},
		{"empty cart", buyer.ID, nil, dec("10"), errs.ErrInvalidInput},
		{"negative total", buyer.ID, line, dec("-1"), errs.ErrInvalidInput},
		{"total below the cent", buyer.ID, line, dec("33.333"), errs.ErrInvalidInput},
		{"total beyond the column", buyer.ID, line, dec("10000000000"), errs.ErrInvalidInput},
		{"invalid quantity", buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 0}}, dec("0"), errs.ErrInvalidInput},
		{"unknown buyer", domain.NewID(), line, dec("10"), errs.ErrNotFound},
		{"unknown product", buyer.ID, []domain.CartLine{{ProductID: domain.NewID(), Quantity: 1}}, dec("10"), errs.ErrNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.committer.Commit(s.ctx, tc.buyerID, tc.lines, tc.total)
			s.Require().ErrorIs(err, tc.kind)
			s.False(errors.Is(err, errs.ErrStoreFailure))
		})
	}

	s.Equal(5, s.quantity(rose.ID))
	s.True(s.balance(buyer.ID).Equal(dec("100")))
}

func (s *CommitterTestSuite) TestCommit_SnapshotsCatalogNotClient() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	receipt, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{
		{ProductID: rose.ID, Quantity: 1, Price: dec("0.01"), Name: "free rose", Image: "evil.png"},
	}, dec("30"))

	s.Require().NoError(err)
	order, err := s.store.GetOrder(s.ctx, receipt.OrderID)
	s.Require().NoError(err)
	s.Require().Len(order.Lines, 1)
	s.Equal("rose", order.Lines[0].Name)
	s.True(order.Lines[0].Price.Equal(dec("30")))
	s.Equal(rose.Image, order.Lines[0].Image)
}

func (s *CommitterTestSuite) TestCommit_DeclaredTotalIsDebitedEvenWhenItDiffers() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	receipt, err := s.committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 2}}, dec("45"))

	s.Require().NoError(err)
	s.True(receipt.RemainingBalance.Equal(dec("55")))
	s.True(s.balance(buyer.ID).Equal(dec("55")))
}

func (s *CommitterTestSuite) TestCommit_RejectTotalMismatch() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)
	strict := checkout.NewCommitter(s.store, checkout.NewValidator(), checkout.Options{RejectTotalMismatch: true})

	_, err := strict.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 2}}, dec("45"))

	s.Require().ErrorIs(err, errs.ErrInvalidInput)
	var mismatch *checkout.TotalMismatchError
	s.Require().True(errors.As(err, &mismatch))
	s.True(mismatch.Computed.Equal(dec("60")))
	s.Equal(5, s.quantity(rose.ID))
	s.True(s.balance(buyer.ID).Equal(dec("100")))
}

func (s *CommitterTestSuite) TestCommit_ConcurrentBuyersNeverOversell() {
	const buyers = 10
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	ids := make([]string, buyers)
	for i := range ids {
		ids[i] = storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100").ID
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		shortages atomic.Int32
	)
	for _, id := range ids {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()
			_, err := s.committer.Commit(s.ctx, buyerID, []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}, dec("10"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, errs.ErrInsufficientStock):
				shortages.Add(1)
			}
		}(id)
	}
	wg.Wait()

	s.Equal(int32(5), succeeded.Load())
	s.Equal(int32(5), shortages.Load())
	s.Equal(0, s.quantity(rose.ID))

	spent := decimal.Zero
	orders := 0
	for _, id := range ids {
		spent = spent.Add(dec("100").Sub(s.balance(id)))
		orders += len(s.orders(id))
	}
	s.True(spent.Equal(dec("50")), spent.String())
	s.Equal(5, orders)
}

func (s *CommitterTestSuite) TestCommit_RetriesConflicts() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	flaky := &conflictingStore{Store: s.store}
	flaky.failures.Store(2)
	committer := checkout.NewCommitter(flaky, checkout.NewValidator(), checkout.Options{Retries: 3})

	_, err := committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}, dec("10"))

	s.Require().NoError(err)
	s.Equal(4, s.quantity(rose.ID))
	s.Equal(int32(3), flaky.calls.Load())
}

func (s *CommitterTestSuite) TestCommit_GivesUpAfterRetries() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	flaky := &conflictingStore{Store: s.store}
	flaky.failures.Store(10)
	committer := checkout.NewCommitter(flaky, checkout.NewValidator(), checkout.Options{Retries: 2})

	_, err := committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}, dec("10"))

	s.Require().ErrorIs(err, errs.ErrStoreFailure)
	s.ErrorIs(err, store.ErrConflict)
	s.Equal(int32(2), flaky.calls.Load())
	s.Equal(5, s.quantity(rose.ID))
}

func (s *CommitterTestSuite) TestCommit_InvalidatesHistory() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	invalidator := &recordingInvalidator{}
	committer := checkout.NewCommitter(s.store, checkout.NewValidator(), checkout.Options{History: invalidator})

	_, err := committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}, dec("10"))
	s.Require().NoError(err)
	s.Equal([]string{buyer.ID}, invalidator.buyers)

	_, err = committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 9}}, dec("90"))
	s.Require().Error(err)
	s.Len(invalidator.buyers, 1)
}

func (s *CommitterTestSuite) TestCommit_NotifiesAfterCommit() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "10", 5)
	notifier := &recordingNotifier{err: fmt.Errorf("broker down")}
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	committer := checkout.NewCommitter(s.store, checkout.NewValidator(), checkout.Options{
		Notifier: notifier,
		Now:      func() time.Time { return at },
	})

	receipt, err := committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 1}}, dec("10"))

	s.Require().NoError(err)
	s.Require().Len(notifier.orders, 1)
	s.Equal(receipt.OrderID, notifier.orders[0].ID)
	s.True(notifier.orders[0].CreatedAt.Equal(at))

	_, err = committer.Commit(s.ctx, buyer.ID, []domain.CartLine{{ProductID: rose.ID, Quantity: 9}}, dec("90"))
	s.Require().Error(err)
	s.Len(notifier.orders, 1)
}

// conflictingStore fails the first n transactions with store.ErrConflict
type conflictingStore struct {
	store.Store
	failures atomic.Int32
	calls    atomic.Int32
}

func (c *conflictingStore) Transaction(ctx context.Context, fn func(tx store.Querier) error) error {
	c.calls.Add(1)
	if c.failures.Add(-1) >= 0 {
		return fmt.Errorf("%w: deadlock found when trying to get lock", store.ErrConflict)
	}
	return c.Store.Transaction(ctx, fn)
}

type recordingInvalidator struct {
	mu     sync.Mutex
	buyers []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, buyerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buyers = append(r.buyers, buyerID)
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (r *recordingNotifier) OrderCommitted(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return r.err
}
