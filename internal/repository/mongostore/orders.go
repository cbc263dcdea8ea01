package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

type orderRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

var _ repository.OrderRepository = (*orderRepository)(nil)

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	o.UpdatedAt = o.OrderDate
	if _, err := r.coll.InsertOne(ctx, toOrderDoc(o)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order %s: %w", o.OrderNumber, domain.ErrConflict)
		}
		r.logger.Error("Failed to create order", zap.String("order_number", o.OrderNumber), zap.Error(err))
		return err
	}
	return nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": orderNumber}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.NotFound("order", orderNumber)
		}
		return nil, err
	}
	o := doc.toDomain()
	return &o, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.find(ctx, bson.M{"customerId": customerID})
}

func (r *orderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return r.find(ctx, filter)
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.Order, 0)
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderNumber string, from, to domain.OrderStatus) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": orderNumber, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := r.GetByNumber(ctx, orderNumber); err != nil {
		return err
	}
	return fmt.Errorf("order %s status changed concurrently: %w", orderNumber, domain.ErrConflict)
}

type reconciliationRepository struct {
	coll *mongo.Collection
}

var _ repository.ReconciliationRepository = (*reconciliationRepository)(nil)

func (r *reconciliationRepository) Record(ctx context.Context, e *domain.ReconciliationEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, reconciliationDoc{
		ID:          e.ID,
		OrderNumber: e.OrderNumber,
		ProductID:   e.ProductID,
		Size:        e.Size,
		Requested:   e.Requested,
		Available:   e.Available,
		Reason:      e.Reason,
		RecordedAt:  e.RecordedAt,
	})
	return err
}

func (r *reconciliationRepository) List(ctx context.Context) ([]domain.ReconciliationEntry, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.ReconciliationEntry, 0)
	for cur.Next(ctx) {
		var doc reconciliationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domain.ReconciliationEntry{
			ID:          doc.ID,
			OrderNumber: doc.OrderNumber,
			ProductID:   doc.ProductID,
			Size:        doc.Size,
			Requested:   doc.Requested,
			Available:   doc.Available,
			Reason:      doc.Reason,
			RecordedAt:  doc.RecordedAt,
		})
	}
	return out, cur.Err()
}
