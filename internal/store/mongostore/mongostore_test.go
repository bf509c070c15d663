package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/store"
	"storefront/internal/store/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify_KeepsTransactionLabel(t *testing.T) {
	transient := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}

	err := classify(transient)

	require.ErrorIs(t, err, store.ErrConflict)
	var labeled mongo.LabeledError
	require.True(t, errors.As(err, &labeled))
	assert.True(t, labeled.HasErrorLabel("TransientTransactionError"))

	plain := errors.New("connection reset")
	assert.Same(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments), store.ErrNotFound)
}

// MongoStoreTestSuite needs a replica set, e.g.
// MONGO_TEST_URI=mongodb://localhost:27017/?replicaSet=rs0
type MongoStoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *Store
	seller *domain.User
}

func TestMongoStoreTestSuite(t *testing.T) {
	if os.Getenv("MONGO_TEST_URI") == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	suite.Run(t, new(MongoStoreTestSuite))
}

func (s *MongoStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	st, err := Connect(ctx, os.Getenv("MONGO_TEST_URI"), "storefront_test_"+domain.NewID()[:8])
	s.Require().NoError(err)
	s.T().Cleanup(func() {
		_ = st.db.Drop(context.Background())
		_ = st.Disconnect(context.Background())
	})
	s.Require().NoError(st.AutoMigrate(ctx))
	s.store = st
	s.seller = storetest.SeedUser(s.T(), st, domain.RoleSeller, "0")
}

func (s *MongoStoreTestSuite) TestDecrementProductQuantity() {
	p := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	s.Require().NoError(s.store.DecrementProductQuantity(s.ctx, p.ID, 2))
	s.ErrorIs(s.store.DecrementProductQuantity(s.ctx, p.ID, 4), store.ErrInsufficientQuantity)
	s.ErrorIs(s.store.DecrementProductQuantity(s.ctx, domain.NewID(), 1), store.ErrNotFound)

	got, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Quantity)
}

func (s *MongoStoreTestSuite) TestDebitBalance() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")

	s.Require().NoError(s.store.DebitBalance(s.ctx, buyer.ID, decimal.RequireFromString("60.25")))
	s.ErrorIs(s.store.DebitBalance(s.ctx, buyer.ID, decimal.NewFromInt(40)), store.ErrInsufficientBalance)
	s.ErrorIs(s.store.DebitBalance(s.ctx, domain.NewID(), decimal.NewFromInt(1)), store.ErrNotFound)

	got, err := s.store.GetUser(s.ctx, buyer.ID)
	s.Require().NoError(err)
	s.True(got.Balance.Equal(decimal.RequireFromString("39.75")), got.Balance.String())
}

func (s *MongoStoreTestSuite) TestTransaction_CommitsTogether() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	p := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	err := s.store.Transaction(s.ctx, func(tx store.Querier) error {
		if err := tx.DecrementProductQuantity(s.ctx, p.ID, 2); err != nil {
			return err
		}
		if err := tx.DebitBalance(s.ctx, buyer.ID, decimal.NewFromInt(60)); err != nil {
			return err
		}
		return tx.CreateOrder(s.ctx, &domain.Order{
			BuyerID: buyer.ID,
			Total:   decimal.NewFromInt(60),
			Status:  domain.OrderCompleted,
			Lines:   []domain.OrderLine{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 2}},
		})
	})
	s.Require().NoError(err)

	orders, err := s.store.ListOrdersByBuyer(s.ctx, buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(2, orders[0].Lines[0].Quantity)
	got, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Quantity)
}

func (s *MongoStoreTestSuite) TestTransaction_RollsBackOnError() {
	buyer := storetest.SeedUser(s.T(), s.store, domain.RoleBuyer, "100")
	p := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)

	err := s.store.Transaction(s.ctx, func(tx store.Querier) error {
		if err := tx.DecrementProductQuantity(s.ctx, p.ID, 2); err != nil {
			return err
		}
		return tx.DebitBalance(s.ctx, buyer.ID, decimal.NewFromInt(500))
	})
	s.Require().ErrorIs(err, store.ErrInsufficientBalance)

	got, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(5, got.Quantity)
}

func (s *MongoStoreTestSuite) TestListProductsAndCategories() {
	other := storetest.SeedUser(s.T(), s.store, domain.RoleSeller, "0")
	rose := storetest.SeedProduct(s.T(), s.store, s.seller.ID, "rose", "30", 5)
	tulip := storetest.SeedProduct(s.T(), s.store, other.ID, "tulip", "5", 5)

	mine, err := s.store.ListProducts(s.ctx, store.ProductFilter{SellerID: s.seller.ID})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(rose.ID, mine[0].ID)

	all, err := s.store.ListProducts(s.ctx, store.ProductFilter{CategoryID: "flowers"})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.ElementsMatch([]string{rose.ID, tulip.ID}, []string{all[0].ID, all[1].ID})

	cat := &domain.Category{Name: "Bouquets"}
	s.Require().NoError(s.store.CreateCategory(s.ctx, cat))
	s.ErrorIs(s.store.CreateCategory(s.ctx, &domain.Category{Name: "Bouquets"}), store.ErrDuplicate)
	cats, err := s.store.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(cats, 1)
	s.Require().NoError(s.store.DeleteCategory(s.ctx, cat.ID))
	s.ErrorIs(s.store.DeleteCategory(s.ctx, cat.ID), store.ErrNotFound)
}
