// Package repository declares the storage interfaces the service layer
// depends on. The mongodb subpackage provides the production implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/dishdash-server/internal/model"
)

// PriceSort is the ordering applied to food listings by price.
type PriceSort int

const (
	PriceSortNone PriceSort = iota
	PriceSortAsc
	PriceSortDesc
)

// DeleteTarget names the collection a tagged delete operates on. The wire
// protocol carries it as ?db=foodDB|purchaseDB; the handler resolves the
// string once and everything below works with the typed value.
type DeleteTarget int

const (
	DeleteTargetFood DeleteTarget = iota + 1
	DeleteTargetPurchase
)

// UpdateResult reports the store's acknowledgment of an upsert, in the shape
// the frontend already consumes.
type UpdateResult struct {
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}

// FoodRepository is the store contract for the foods collection.
//
// AdjustSale must be a single field-level atomic increment on the store side
// (quantity down, purchase count up by the same amount), never a
// read-modify-write.
type FoodRepository interface {
	Insert(ctx context.Context, food *model.Food) (string, error)
	GetByID(ctx context.Context, id string) (*model.Food, error)
	List(ctx context.Context) ([]model.Food, error)
	ListPage(ctx context.Context, page, size int) ([]model.Food, error)
	ListByOwner(ctx context.Context, email string) ([]model.Food, error)
	ListByNameOrCategory(ctx context.Context, term string) ([]model.Food, error)
	ListFiltered(ctx context.Context, category string, sort PriceSort) ([]model.Food, error)
	ListTop(ctx context.Context, limit int) ([]model.Food, error)
	ListFirst(ctx context.Context, limit int) ([]model.Food, error)
	Search(ctx context.Context, term string) ([]model.Food, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, id string, update model.FoodUpdate) (*UpdateResult, error)
	AdjustSale(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
}

// PurchaseRepository is the store contract for the purchase collection.
type PurchaseRepository interface {
	Insert(ctx context.Context, purchase *model.Purchase) (string, error)
	ListByBuyer(ctx context.Context, email string) ([]model.Purchase, error)
	Delete(ctx context.Context, id string) error
}

// DocumentRepository is the schemaless contract shared by the users and
// gallery collections: insert whatever arrives, list everything back.
type DocumentRepository interface {
	Insert(ctx context.Context, doc model.Document) (string, error)
	List(ctx context.Context) ([]model.Document, error)
}

// UserRepository extends the schemaless contract with the email lookups the
// password and OAuth login flows need.
type UserRepository interface {
	DocumentRepository
	FindByEmail(ctx context.Context, email string) (model.Document, error)
	UpsertByEmail(ctx context.Context, email string, doc model.Document) error
}
