package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

type productRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

var _ repository.ProductRepository = (*productRepository)(nil)

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := r.coll.InsertOne(ctx, toProductDoc(p))
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	p.ID = oid.Hex()
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID("product", id)
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.NotFound("product", id)
		}
		return nil, err
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	oid, err := parseObjectID("product", p.ID)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	doc := toProductDoc(p)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"category":    doc.Category,
		"images":      doc.Images,
		"variations":  doc.Variations,
		"updatedAt":   doc.UpdatedAt,
	}})
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("product_id", p.ID), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("product", p.ID)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID("product", id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	filter := bson.M{}
	if f.NameSubstring != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.NameSubstring), "$options": "i"}
	}
	if f.Category != "" {
		filter["category"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Category) + "$", "$options": "i"}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = toDecimal128(*f.MinPrice)
		}
		if f.MaxPrice != nil {
			price["$lte"] = toDecimal128(*f.MaxPrice)
		}
		filter["variations"] = bson.M{"$elemMatch": bson.M{"price": price}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.Product, 0)
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// DecrementStock: один условный апдейт, stock >= amount проверяется в фильтре
func (r *productRepository) DecrementStock(ctx context.Context, id, size string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.Invalid("decrement amount must be positive")
	}
	oid, err := parseObjectID("product", id)
	if err != nil {
		return 0, err
	}
	filter := bson.M{
		"_id": oid,
		"variations": bson.M{"$elemMatch": bson.M{
			"size":  size,
			"stock": bson.M{"$gte": amount},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"variations.$.stock": -amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		p := doc.toDomain()
		v, err := p.FindVariation(size)
		if err != nil {
			return 0, err
		}
		return v.Stock, nil
	}
	if !isNoDocuments(err) {
		return 0, err
	}

	// nothing matched: find out why
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	v, err := p.FindVariation(size)
	if err != nil {
		return 0, err
	}
	return v.Stock, &domain.InsufficientStockError{
		LineID:    domain.LineKey{ProductID: id, Size: size}.String(),
		Available: v.Stock,
	}
}

func (r *productRepository) SetStock(ctx context.Context, id, size string, stock int64) error {
	if stock < 0 {
		return domain.Invalid("stock must not be negative")
	}
	oid, err := parseObjectID("product", id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "variations.size": size},
		bson.M{"$set": bson.M{"variations.$.stock": stock, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrVariationNotFound
	}
	return nil
}
