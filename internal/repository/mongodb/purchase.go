package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

var _ repository.PurchaseRepository = (*PurchaseStore)(nil)

// PurchaseStore implements repository.PurchaseRepository on the purchase
// collection.
type PurchaseStore struct {
	coll      *mongo.Collection
	opTimeout time.Duration
}

// Insert writes a new purchase record and returns the generated id.
func (s *PurchaseStore) Insert(ctx context.Context, purchase *model.Purchase) (string, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, purchase)
	if err != nil {
		return "", fmt.Errorf("mongodb: inserting purchase: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongodb: unexpected inserted id type %T", res.InsertedID)
	}
	purchase.ID = oid
	return oid.Hex(), nil
}

// ListByBuyer returns every purchase recorded for the given buyer email.
func (s *PurchaseStore) ListByBuyer(ctx context.Context, email string) ([]model.Purchase, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"email": bson.M{"$eq": email}})
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing purchases for %s: %w", email, err)
	}
	return all[model.Purchase](ctx, cur)
}

// Delete removes the purchase record with the given id.
func (s *PurchaseStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongodb: deleting purchase %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("purchase", id)
	}
	return nil
}
