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

var (
	_ repository.DocumentRepository = (*DocumentStore)(nil)
	_ repository.UserRepository     = (*UserStore)(nil)
)

// DocumentStore is the schemaless store behind the users and gallery
// collections. Documents go in exactly as the client sent them and come back
// unmodified; there is no validation or deduplication at this layer.
type DocumentStore struct {
	coll      *mongo.Collection
	opTimeout time.Duration
}

// Insert writes the document verbatim and returns the generated id.
func (s *DocumentStore) Insert(ctx context.Context, doc model.Document) (string, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("mongodb: inserting into %s: %w", s.coll.Name(), err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongodb: unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// List returns every document in natural store order.
func (s *DocumentStore) List(ctx context.Context) ([]model.Document, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, emptyFilter)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing %s: %w", s.coll.Name(), err)
	}
	return all[model.Document](ctx, cur)
}

// UserStore adds the email lookups login flows need on top of the schemaless
// contract. Email is not unique in this collection, so lookups take the first
// match in natural order, same as the original deployment behaved.
type UserStore struct {
	DocumentStore
}

// FindByEmail returns the first user document with the given email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (model.Document, error) {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	var doc model.Document
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: fetching user %s: %w", email, err)
	}
	return doc, nil
}

// UpsertByEmail sets the given fields on the user with that email, creating
// the document if absent. Used by the OAuth callback so repeat logins do not
// pile up duplicate accounts.
func (s *UserStore) UpsertByEmail(ctx context.Context, email string, doc model.Document) error {
	ctx, cancel := opCtx(ctx, s.opTimeout)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb: upserting user %s: %w", email, err)
	}
	return nil
}
