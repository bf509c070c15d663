// Package mongostore implements store.Store on MongoDB. Multi-document
// transactions need a replica set; the driver retries the whole callback on
// transient transaction errors, and conditional updates keep stock and
// balance from going negative when two buyers race.
package mongostore

import (
	"context" // Context for store calls
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Timestamps

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	"github.com/shopspring/decimal"                  // Exact decimal arithmetic
	"go.mongodb.org/mongo-driver/bson"               // BSON filters and updates
	"go.mongodb.org/mongo-driver/mongo"              // MongoDB driver
	"go.mongodb.org/mongo-driver/mongo/options"      // Client, find and index options
	"go.mongodb.org/mongo-driver/mongo/readconcern"  // Snapshot reads
	"go.mongodb.org/mongo-driver/mongo/writeconcern" // Majority writes
)

const (
	productsCollection   = "products"   // Catalog
	categoriesCollection = "categories" // Category names
	usersCollection      = "users"      // Accounts and balances
	ordersCollection     = "orders"     // Orders with embedded lines
)

// Store is a MongoDB-backed store.Store
type Store struct {
	client  *mongo.Client   // Shared client
	db      *mongo.Database // Selected database
	session mongo.Session   // set only on transaction-bound copies
}

// Connect opens a client for uri, verifies it with a ping and selects dbName
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Disconnect closes the client
func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) bind(ctx context.Context) context.Context {
	if s.session != nil {
		return mongo.NewSessionContext(ctx, s.session)
	}
	return ctx
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Transaction implements store.Store
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Querier) error) error {
	if s.session != nil {
		return fn(s)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return classify(err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).  // Consistent reads inside the transaction
		SetWriteConcern(writeconcern.Majority()) // Durable commit
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&Store{client: s.client, db: s.db, session: session})
	}, opts)
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return classify(err)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDocument
	err := s.collection(productsCollection).FindOne(s.bind(ctx), bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	product := doc.model()
	return &product, nil
}

// GetProductForUpdate reads inside the session snapshot; a concurrent write
// to the same document aborts one of the transactions with a write conflict.
func (s *Store) GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return s.GetProduct(ctx, id)
}

func (s *Store) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	found := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	ctx = s.bind(ctx)
	cursor, err := s.collection(productsCollection).Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, classify(err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	for _, doc := range docs {
		found[doc.ID] = doc.model()
	}
	return found, nil
}

func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	query := bson.D{}
	if filter.SellerID != "" {
		query = append(query, bson.E{Key: "userId", Value: filter.SellerID})
	}
	if filter.CategoryID != "" {
		query = append(query, bson.E{Key: "category", Value: filter.CategoryID})
	}
	ctx = s.bind(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection(productsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, classify(err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.model())
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = domain.NewID()
	}
	product.CreatedAt, product.UpdatedAt = now, now
	return s.insert(ctx, productsCollection, newProductDocument(product))
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.collection(productsCollection).DeleteOne(s.bind(ctx), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DecrementProductQuantity(ctx context.Context, id string, amount int) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "quantity", Value: bson.D{{Key: "$gte", Value: amount}}}, // Never below zero
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "quantity", Value: -amount}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	res, err := s.collection(productsCollection).UpdateOne(s.bind(ctx), filter, update)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetProduct(ctx, id); err != nil {
			return err
		}
		return store.ErrInsufficientQuantity
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return s.GetUser(ctx, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := s.collection(usersCollection).FindOne(s.bind(ctx), filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	user := doc.model()
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return s.insert(ctx, usersCollection, newUserDocument(user))
}

func (s *Store) DebitBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "balance", Value: bson.D{{Key: "$gte", Value: toDecimal128(amount)}}}, // Never below zero
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "balance", Value: toDecimal128(amount.Neg())}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	res, err := s.collection(usersCollection).UpdateOne(s.bind(ctx), filter, update)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
		return store.ErrInsufficientBalance
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx = s.bind(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "catName", Value: 1}})
	cursor, err := s.collection(categoriesCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, doc.model())
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = domain.NewID()
	}
	category.CreatedAt = time.Now().UTC()
	return s.insert(ctx, categoriesCollection, newCategoryDocument(category))
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.collection(categoriesCollection).DeleteOne(s.bind(ctx), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
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
	return s.insert(ctx, ordersCollection, newOrderDocument(order))
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	if err := s.collection(ordersCollection).FindOne(s.bind(ctx), bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	order := doc.model()
	return &order, nil
}

func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	ctx = s.bind(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection(ordersCollection).Find(ctx, bson.D{{Key: "userId", Value: buyerID}}, opts)
	if err != nil {
		return nil, classify(err)
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.model())
	}
	return orders, nil
}

func (s *Store) insert(ctx context.Context, collection string, doc any) error {
	_, err := s.collection(collection).InsertOne(s.bind(ctx), doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	return classify(err)
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Migrator = (*Store)(nil)
)
