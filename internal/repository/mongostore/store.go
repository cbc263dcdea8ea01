// Package mongostore реализует репозитории поверх MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

const (
	collProducts       = "products"
	collCategories     = "categories"
	collCarts          = "carts"
	collOrders         = "orders"
	collUsers          = "users"
	collReconciliation = "reconciliation"
)

// Config параметры подключения
type Config struct {
	URI      string
	Database string
	// Transactions включает многодокументные транзакции (нужен replica set)
	Transactions bool
}

// Store подключение к базе и фабрика репозиториев
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *zap.Logger
}

// Connect подключается и проверяет соединение
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(25).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Store{
		client:       client,
		db:           client.Database(cfg.Database),
		transactions: cfg.Transactions,
		logger:       logger,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes создаёт индексы, на которые опираются запросы
func (s *Store) EnsureIndexes(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}
	specs := map[string][]mongo.IndexModel{
		collOrders: {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "orderDate", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		},
		collProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collReconciliation: {
			{Keys: bson.D{{Key: "recordedAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Repositories собирает все репозитории поверх этой базы
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Products:       &productRepository{coll: s.db.Collection(collProducts), logger: s.logger},
		Categories:     &categoryRepository{coll: s.db.Collection(collCategories)},
		Carts:          &cartRepository{coll: s.db.Collection(collCarts)},
		Orders:         &orderRepository{coll: s.db.Collection(collOrders), logger: s.logger},
		Addresses:      &addressRepository{coll: s.db.Collection(collUsers)},
		Reconciliation: &reconciliationRepository{coll: s.db.Collection(collReconciliation)},
		Tx:             s,
	}
}

// WithTransaction выполняет fn в транзакции, если они включены.
// Без транзакций каждая операция атомарна только сама по себе.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func parseObjectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// чужой формат id означает, что такого документа нет
		return primitive.NilObjectID, domain.NotFound(resource, id)
	}
	return oid, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
