package mongostore

import (
	"context" // Context for store calls

	"storefront/internal/store" // Store contract

	"go.mongodb.org/mongo-driver/bson"          // BSON filters and updates
	"go.mongodb.org/mongo-driver/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/mongo/options" // Client, find and index options
)

// AutoMigrate creates the indexes the store relies on
func (s *Store) AutoMigrate(ctx context.Context) error {
	if _, err := s.collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := s.collection(productsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := s.collection(categoriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "catName", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := s.collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

// LegacyCredentials implements store.Migrator
func (s *Store) LegacyCredentials(ctx context.Context) ([]store.LegacyCredential, error) {
	filter := bson.D{{Key: "passwrd", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}}}}
	cursor, err := s.collection(usersCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	creds := make([]store.LegacyCredential, 0, len(docs))
	for _, doc := range docs {
		creds = append(creds, store.LegacyCredential{ID: doc.ID, Password: doc.Password, LegacyPassword: doc.LegacyPassword})
	}
	return creds, nil
}

// ReplaceCredential implements store.Migrator
func (s *Store) ReplaceCredential(ctx context.Context, id, hash string) error {
	res, err := s.collection(usersCollection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "password", Value: hash}}},
			{Key: "$unset", Value: bson.D{{Key: "passwrd", Value: ""}}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
