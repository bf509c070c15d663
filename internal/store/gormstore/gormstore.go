// Package gormstore implements store.Store on GORM. MySQL is the production
// dialect; stock and balance rows are locked with SELECT ... FOR UPDATE and
// changed with conditional UPDATEs so a value can never go negative.
package gormstore

import (
	"context" // Context for store calls
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Timestamps

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	mysqldriver "github.com/go-sql-driver/mysql" // MySQL error numbers
	"github.com/shopspring/decimal"              // Exact decimal arithmetic
	"gorm.io/driver/mysql"                       // GORM MySQL dialect
	"gorm.io/gorm"                               // ORM library
	"gorm.io/gorm/clause"                        // Row locking clauses
)

// MySQL error numbers that abort a transaction and are safe to retry
const (
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
)

// Store is a GORM-backed store.Store. The zero value is not usable.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to MySQL with the given DSN
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true}) // Map duplicate keys to gorm errors
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// DB exposes the underlying handle for migrations
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction implements store.Store
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Querier) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	return classify(err)
}

func classify(err error) error {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout) {
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return classify(err)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *Store) GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}). // SELECT ... FOR UPDATE
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *Store) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	found := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var products []domain.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, classify(err)
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	products := []domain.Product{}
	q := s.db.WithContext(ctx)
	if filter.SellerID != "" {
		q = q.Where("seller_id = ?", filter.SellerID)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if err := q.Order("created_at desc").Order("id desc").Find(&products).Error; err != nil {
		return nil, classify(err)
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = domain.NewID()
	}
	return s.create(ctx, product)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DecrementProductQuantity(ctx context.Context, id string, amount int) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND quantity >= ?", id, amount). // Never below zero
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or the guard rejected it
		if _, err := s.GetProduct(ctx, id); err != nil {
			return err
		}
		return store.ErrInsufficientQuantity
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserForUpdate(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}). // SELECT ... FOR UPDATE
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	return s.create(ctx, user)
}

func (s *Store) DebitBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	if amount.IsZero() {
		// MySQL reports zero affected rows for a no-op update
		_, err := s.GetUser(ctx, id)
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND balance >= ?", id, amount). // Never below zero
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
		return store.ErrInsufficientBalance
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, classify(err)
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = domain.NewID()
	}
	return s.create(ctx, category)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Category{}, "id = ?", id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = domain.NewID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == "" {
			order.Lines[i].ID = domain.NewID()
		}
		order.Lines[i].OrderID = order.ID
		order.Lines[i].Position = i
	}
	return s.create(ctx, order)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", orderedLines). // Lines in cart order
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	orders := []domain.Order{}
	err := s.db.WithContext(ctx).
		Preload("Lines", orderedLines). // Lines in cart order
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, classify(err)
	}
	return orders, nil
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (s *Store) create(ctx context.Context, value any) error {
	err := s.db.WithContext(ctx).Create(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	return classify(err)
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Migrator = (*Store)(nil)
)
