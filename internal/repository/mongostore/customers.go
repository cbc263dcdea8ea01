package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

type cartRepository struct {
	coll *mongo.Collection
}

var _ repository.CartRepository = (*cartRepository)(nil)

func (r *cartRepository) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	var doc cartDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": customerID}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.NotFound("cart", customerID)
		}
		return nil, err
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *cartRepository) Save(ctx context.Context, c *domain.Cart) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.CustomerID}, toCartDoc(c), options.Replace().SetUpsert(true))
	return err
}

func (r *cartRepository) Delete(ctx context.Context, customerID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": customerID})
	return err
}

// addressRepository хранит адреса массивом в документе пользователя
type addressRepository struct {
	coll *mongo.Collection
}

var _ repository.AddressRepository = (*addressRepository)(nil)

func (r *addressRepository) List(ctx context.Context, customerID string) ([]domain.Address, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": customerID}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return []domain.Address{}, nil
		}
		return nil, err
	}
	out := make([]domain.Address, 0, len(doc.Addresses))
	for _, a := range doc.Addresses {
		out = append(out, a.toDomain())
	}
	return out, nil
}

func (r *addressRepository) Get(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	list, err := r.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		if a.ID == addressID {
			cp := a
			return &cp, nil
		}
	}
	return nil, domain.NotFound("address", addressID)
}

func (r *addressRepository) Add(ctx context.Context, customerID string, a *domain.Address) error {
	a.ID = uuid.NewString()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{"$push": bson.M{"addresses": toAddressDoc(*a)}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *addressRepository) Update(ctx context.Context, customerID string, a *domain.Address) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": customerID, "addresses.id": a.ID},
		bson.M{"$set": bson.M{"addresses.$": toAddressDoc(*a)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("address", a.ID)
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, customerID, addressID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{"$pull": bson.M{"addresses": bson.M{"id": addressID}}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return domain.NotFound("address", addressID)
	}
	return nil
}

type categoryRepository struct {
	coll *mongo.Collection
}

var _ repository.CategoryRepository = (*categoryRepository)(nil)

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	c.CreatedAt = time.Now().UTC()
	res, err := r.coll.InsertOne(ctx, categoryDoc{Name: c.Name, CreatedAt: c.CreatedAt})
	if err != nil {
		// unique index is case-insensitive
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid.Hex()
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.Category, 0)
	for cur.Next(ctx) {
		var doc categoryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domain.Category{ID: doc.ID.Hex(), Name: doc.Name, CreatedAt: doc.CreatedAt})
	}
	return out, cur.Err()
}
