// Package service contains the business logic layer: query multiplexing,
// the filter decision table, ownership checks, and the two-effect purchase
// write. Services speak domain errors; handlers translate them to HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

const (
	// DefaultPageSize is the window size for paginated food listings.
	DefaultPageSize = 9

	// TopFoodLimit is how many items the best-sellers listing returns.
	TopFoodLimit = 6

	// searchAllLimit caps the shortcut listing for the literal search term
	// "all".
	searchAllLimit = 9
)

// forbiddenMessage matches the response body the frontend already handles.
const forbiddenMessage = "forbidden access"

// FoodService handles business logic for the foods collection.
type FoodService struct {
	repo     repository.FoodRepository
	pageSize int
	logger   *slog.Logger
}

// NewFoodService creates a FoodService. pageSize <= 0 falls back to
// DefaultPageSize.
func NewFoodService(repo repository.FoodRepository, pageSize int, logger *slog.Logger) *FoodService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FoodService{
		repo:     repo,
		pageSize: pageSize,
		logger:   logger,
	}
}

// PageSize reports the configured pagination window.
func (s *FoodService) PageSize() int {
	return s.pageSize
}

// GetByID returns the food with the given id.
func (s *FoodService) GetByID(ctx context.Context, id string) (*model.Food, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "food id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ListAll returns every food document in natural store order.
func (s *FoodService) ListAll(ctx context.Context) ([]model.Food, error) {
	foods, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list foods", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing foods: %w", err)
	}
	return foods, nil
}

// PageTotal returns the value served under {"pages": N}.
//
// It is the raw document count, not ceil(count/pageSize): the deployed
// frontend divides by the page size itself, so this stays as shipped.
func (s *FoodService) PageTotal(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count foods", slog.String("error", err.Error()))
		return 0, fmt.Errorf("counting foods: %w", err)
	}
	return n, nil
}

// Page returns the pagination window for a 1-based page number. Page k skips
// (k-1)*pageSize documents and returns at most pageSize, so windows are
// non-overlapping and exhaustive.
func (s *FoodService) Page(ctx context.Context, pageNo int) ([]model.Food, error) {
	if pageNo < 1 {
		return nil, apperror.ValidationFailed("activePage", "page number must be 1 or greater")
	}
	foods, err := s.repo.ListPage(ctx, pageNo, s.pageSize)
	if err != nil {
		s.logger.Error("failed to page foods",
			slog.Int("page", pageNo),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("paging foods: %w", err)
	}
	return foods, nil
}

// ListByOwner returns every food listed under the given email, without an
// identity check. Used by the public query multiplexer.
func (s *FoodService) ListByOwner(ctx context.Context, email string) ([]model.Food, error) {
	foods, err := s.repo.ListByOwner(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing foods by owner: %w", err)
	}
	return foods, nil
}

// ListMine returns the foods owned by email, but only when the verified
// identity matches it. Any mismatch is Forbidden, whether or not the email
// exists.
func (s *FoodService) ListMine(ctx context.Context, verifiedEmail, email string) ([]model.Food, error) {
	if verifiedEmail != email {
		return nil, apperror.Forbidden(forbiddenMessage)
	}
	return s.ListByOwner(ctx, email)
}

// SearchLiteral implements the legacy search heuristic: capitalize the first
// character of the term and return documents whose name or category equals
// that string exactly.
func (s *FoodService) SearchLiteral(ctx context.Context, term string) ([]model.Food, error) {
	foods, err := s.repo.ListByNameOrCategory(ctx, capitalizeFirst(term))
	if err != nil {
		return nil, fmt.Errorf("searching foods: %w", err)
	}
	return foods, nil
}

// SearchText is the full-text search. The literal term "all" short-circuits
// to the first nine documents; anything else goes to the store's fuzzy
// wildcard search, whose ranking is returned as given.
func (s *FoodService) SearchText(ctx context.Context, term string) ([]model.Food, error) {
	if term == "all" {
		foods, err := s.repo.ListFirst(ctx, searchAllLimit)
		if err != nil {
			return nil, fmt.Errorf("listing foods: %w", err)
		}
		return foods, nil
	}

	foods, err := s.repo.Search(ctx, term)
	if err != nil {
		s.logger.Error("full-text search failed",
			slog.String("term", term),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching foods: %w", err)
	}
	return foods, nil
}

// Top returns the best sellers: the TopFoodLimit documents with the highest
// purchase counts, descending.
func (s *FoodService) Top(ctx context.Context) ([]model.Food, error) {
	foods, err := s.repo.ListTop(ctx, TopFoodLimit)
	if err != nil {
		return nil, fmt.Errorf("listing top foods: %w", err)
	}
	return foods, nil
}

// filterRule is one row of the price/category decision table. prices and
// categories list the literal query values the row matches; categoryName is
// the wildcard for "an actual category name".
type filterRule struct {
	prices     []string
	categories []string
	sort       repository.PriceSort
	byCategory bool
}

// categoryName matches any value that is not one of the placeholder tokens
// the frontend sends for "no selection".
const categoryName = "\x00name"

// filterTable is the filter contract, row by row, first match wins. The
// asymmetries are deliberate and match the deployed behavior: price "null"
// with a category sorts high-to-low, while price "default" with a category
// falls through to the unsorted, unfiltered tail row.
var filterTable = []filterRule{
	{prices: []string{"default"}, categories: []string{"default"}},
	{prices: []string{"null"}, categories: []string{"null"}},
	{prices: []string{"highToLow"}, categories: []string{"default", "null"}, sort: repository.PriceSortDesc},
	{prices: []string{"lowToHigh"}, categories: []string{"default", "null"}, sort: repository.PriceSortAsc},
	{prices: []string{"highToLow", "null"}, categories: []string{categoryName}, sort: repository.PriceSortDesc, byCategory: true},
	{prices: []string{"lowToHigh"}, categories: []string{categoryName}, sort: repository.PriceSortAsc, byCategory: true},
}

// Filter resolves a (price, category) query pair through the decision table
// and runs the matching listing. Unrecognized combinations return everything
// unsorted, same as the tail branch always has.
func (s *FoodService) Filter(ctx context.Context, price, category string) ([]model.Food, error) {
	sort := repository.PriceSortNone
	filterCategory := ""

	for _, rule := range filterTable {
		if matchesFilterValue(price, rule.prices) && matchesFilterValue(category, rule.categories) {
			sort = rule.sort
			if rule.byCategory {
				filterCategory = category
			}
			break
		}
	}

	foods, err := s.repo.ListFiltered(ctx, filterCategory, sort)
	if err != nil {
		s.logger.Error("failed to filter foods",
			slog.String("price", price),
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("filtering foods: %w", err)
	}
	return foods, nil
}

// Categories returns the distinct category values across the whole
// collection, preserving first-encounter order. The scan runs over every
// document rather than a server-side distinct, which is what keeps the order
// stable for the frontend's dropdown.
func (s *FoodService) Categories(ctx context.Context) ([]string, error) {
	foods, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	seen := make(map[string]struct{}, len(foods))
	categories := []string{}
	for _, f := range foods {
		if _, ok := seen[f.Category]; ok {
			continue
		}
		seen[f.Category] = struct{}{}
		categories = append(categories, f.Category)
	}
	return categories, nil
}

// Create inserts a new food listing. The purchase count is forced to zero no
// matter what the caller sent.
func (s *FoodService) Create(ctx context.Context, food *model.Food) (string, error) {
	food.PurchaseCount = 0

	id, err := s.repo.Insert(ctx, food)
	if err != nil {
		s.logger.Error("failed to create food",
			slog.String("name", food.Name),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("creating food: %w", err)
	}

	s.logger.Info("food created",
		slog.String("id", id),
		slog.String("name", food.Name),
	)
	return id, nil
}

// Update upserts the whitelisted fields of the food with the given id.
// Fields outside model.FoodUpdate never reach the store, even if the caller
// sent them.
func (s *FoodService) Update(ctx context.Context, id string, update model.FoodUpdate) (*repository.UpdateResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "food id is required")
	}

	res, err := s.repo.Upsert(ctx, id, update)
	if err != nil {
		s.logger.Error("failed to update food",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating food: %w", err)
	}

	s.logger.Info("food updated", slog.String("id", id))
	return res, nil
}

// Delete removes the food with the given id.
func (s *FoodService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "food id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("food deleted", slog.String("id", id))
	return nil
}

// matchesFilterValue reports whether a query value matches one of a rule
// row's literals. The categoryName wildcard matches anything that is not a
// placeholder token.
func matchesFilterValue(value string, literals []string) bool {
	for _, lit := range literals {
		if lit == categoryName {
			if value != "default" && value != "null" {
				return true
			}
			continue
		}
		if value == lit {
			return true
		}
	}
	return false
}

// capitalizeFirst upper-cases the first rune of s, leaving the rest alone.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
