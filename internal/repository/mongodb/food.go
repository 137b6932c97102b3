package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

// Compile-time interface check.
var _ repository.FoodRepository = (*FoodStore)(nil)

// searchIndex is the Atlas Search index provisioned on the foods collection.
const searchIndex = "search"

// FoodStore implements repository.FoodRepository on the foods collection.
type FoodStore struct {
	coll      *mongo.Collection
	opTimeout time.Duration
}

// Insert writes a new food document and returns the generated id.
func (s *FoodStore) Insert(ctx context.Context, food *model.Food) (string, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, food)
	if err != nil {
		return "", fmt.Errorf("mongodb: inserting food: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongodb: unexpected inserted id type %T", res.InsertedID)
	}
	food.ID = oid
	return oid.Hex(), nil
}

// GetByID fetches a single food document by its hex id.
func (s *FoodStore) GetByID(ctx context.Context, id string) (*model.Food, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	var food model.Food
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&food)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("food", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: fetching food %s: %w", id, err)
	}
	return &food, nil
}

// List returns every food document in natural store order.
func (s *FoodStore) List(ctx context.Context) ([]model.Food, error) {
	return s.find(ctx, emptyFilter, nil)
}

// ListPage returns the skip/limit window for a 1-based page number.
func (s *FoodStore) ListPage(ctx context.Context, page, size int) ([]model.Food, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
	return s.find(ctx, emptyFilter, opts)
}

// ListByOwner returns every food document listed under the given email.
func (s *FoodStore) ListByOwner(ctx context.Context, email string) ([]model.Food, error) {
	return s.find(ctx, bson.M{"email": email}, nil)
}

// ListByNameOrCategory returns documents whose name or category equals the
// term exactly.
func (s *FoodStore) ListByNameOrCategory(ctx context.Context, term string) ([]model.Food, error) {
	filter := bson.M{"$or": []bson.M{
		{"foodName": term},
		{"foodCategory": term},
	}}
	return s.find(ctx, filter, nil)
}

// ListFiltered applies the category equality predicate store-side, combined
// with the requested price ordering.
func (s *FoodStore) ListFiltered(ctx context.Context, category string, sort repository.PriceSort) ([]model.Food, error) {
	filter := bson.M{}
	if category != "" {
		filter["foodCategory"] = category
	}

	var opts *options.FindOptions
	switch sort {
	case repository.PriceSortAsc:
		opts = options.Find().SetSort(bson.D{{Key: "foodPrice", Value: 1}})
	case repository.PriceSortDesc:
		opts = options.Find().SetSort(bson.D{{Key: "foodPrice", Value: -1}})
	}
	return s.find(ctx, filter, opts)
}

// ListTop returns the limit documents with the highest purchase counts.
func (s *FoodStore) ListTop(ctx context.Context, limit int) ([]model.Food, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "purchase", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, emptyFilter, opts)
}

// ListFirst returns up to limit documents in natural store order.
func (s *FoodStore) ListFirst(ctx context.Context, limit int) ([]model.Food, error) {
	return s.find(ctx, emptyFilter, options.Find().SetLimit(int64(limit)))
}

// Search runs a fuzzy wildcard Atlas Search across all fields. Ranking is
// whatever the search index returns; nothing is reordered here.
func (s *FoodStore) Search(ctx context.Context, term string) ([]model.Food, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$search", Value: bson.M{
			"index": searchIndex,
			"text": bson.M{
				"query": term,
				"path":  bson.M{"wildcard": "*"},
				"fuzzy": bson.M{},
			},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb: searching foods: %w", err)
	}
	return all[model.Food](ctx, cur)
}

// Count returns the total number of food documents.
func (s *FoodStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, emptyFilter)
	if err != nil {
		return 0, fmt.Errorf("mongodb: counting foods: %w", err)
	}
	return n, nil
}

// Upsert replaces the whitelisted fields of the document with the given id,
// inserting it if absent.
func (s *FoodStore) Upsert(ctx context.Context, id string, update model.FoodUpdate) (*repository.UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": update},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("mongodb: upserting food %s: %w", id, err)
	}

	out := &repository.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}
	if upserted, ok := res.UpsertedID.(primitive.ObjectID); ok {
		out.UpsertedID = upserted.Hex()
	}
	return out, nil
}

// AdjustSale moves quantity and purchase count in lockstep for one sale:
// a single atomic $inc of foodQuantity by -quantity and purchase by
// +quantity. The store applies both field increments in one document write,
// which is the atomicity this service relies on.
func (s *FoodStore) AdjustSale(ctx context.Context, id string, quantity int) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{
			"foodQuantity": -quantity,
			"purchase":     quantity,
		}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: adjusting sale for food %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("food", id)
	}
	return nil
}

// Delete removes the document with the given id.
func (s *FoodStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongodb: deleting food %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("food", id)
	}
	return nil
}

// find is the shared Find + drain path.
func (s *FoodStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]model.Food, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = s.coll.Find(ctx, filter, opts)
	} else {
		cur, err = s.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing foods: %w", err)
	}
	return all[model.Food](ctx, cur)
}

// parseObjectID converts a hex id from the wire into an ObjectID, reporting
// bad input as a validation error rather than a store failure.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.ValidationFailed("id", "invalid document id")
	}
	return oid, nil
}
