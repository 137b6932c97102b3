package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/handler"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
	"github.com/sakif/dishdash-server/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// MockFoodRepo is an in-memory FoodRepository that records which calls the
// handler chain routed to it.
type MockFoodRepo struct {
	Foods        []model.Food
	CapturedTerm string
	DeletedIDs   []string
}

var _ repository.FoodRepository = (*MockFoodRepo)(nil)

func (m *MockFoodRepo) Insert(_ context.Context, food *model.Food) (string, error) {
	food.ID = primitive.NewObjectID()
	m.Foods = append(m.Foods, *food)
	return food.ID.Hex(), nil
}

func (m *MockFoodRepo) GetByID(_ context.Context, id string) (*model.Food, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, apperror.ValidationFailed("id", "invalid document id")
	}
	for _, f := range m.Foods {
		if f.ID.Hex() == id {
			return &f, nil
		}
	}
	return nil, apperror.NotFound("food", id)
}

func (m *MockFoodRepo) List(_ context.Context) ([]model.Food, error) {
	return append([]model.Food{}, m.Foods...), nil
}

func (m *MockFoodRepo) ListPage(_ context.Context, page, size int) ([]model.Food, error) {
	skip := (page - 1) * size
	if skip >= len(m.Foods) {
		return []model.Food{}, nil
	}
	end := skip + size
	if end > len(m.Foods) {
		end = len(m.Foods)
	}
	return append([]model.Food{}, m.Foods[skip:end]...), nil
}

func (m *MockFoodRepo) ListByOwner(_ context.Context, email string) ([]model.Food, error) {
	out := []model.Food{}
	for _, f := range m.Foods {
		if f.OwnerEmail == email {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MockFoodRepo) ListByNameOrCategory(_ context.Context, term string) ([]model.Food, error) {
	m.CapturedTerm = term
	out := []model.Food{}
	for _, f := range m.Foods {
		if f.Name == term || f.Category == term {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MockFoodRepo) ListFiltered(_ context.Context, category string, _ repository.PriceSort) ([]model.Food, error) {
	out := []model.Food{}
	for _, f := range m.Foods {
		if category == "" || f.Category == category {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MockFoodRepo) ListTop(_ context.Context, limit int) ([]model.Food, error) {
	return m.ListFirst(context.Background(), limit)
}

func (m *MockFoodRepo) ListFirst(_ context.Context, limit int) ([]model.Food, error) {
	if limit > len(m.Foods) {
		limit = len(m.Foods)
	}
	return append([]model.Food{}, m.Foods[:limit]...), nil
}

func (m *MockFoodRepo) Search(_ context.Context, term string) ([]model.Food, error) {
	m.CapturedTerm = term
	return []model.Food{}, nil
}

func (m *MockFoodRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.Foods)), nil
}

func (m *MockFoodRepo) Upsert(_ context.Context, id string, update model.FoodUpdate) (*repository.UpdateResult, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, apperror.ValidationFailed("id", "invalid document id")
	}
	for i, f := range m.Foods {
		if f.ID.Hex() == id {
			m.Foods[i].Name = update.Name
			m.Foods[i].Price = update.Price
			return &repository.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &repository.UpdateResult{UpsertedID: id}, nil
}

func (m *MockFoodRepo) AdjustSale(_ context.Context, id string, quantity int) error {
	for i, f := range m.Foods {
		if f.ID.Hex() == id {
			m.Foods[i].Quantity -= quantity
			m.Foods[i].PurchaseCount += quantity
			return nil
		}
	}
	return apperror.NotFound("food", id)
}

func (m *MockFoodRepo) Delete(_ context.Context, id string) error {
	for i, f := range m.Foods {
		if f.ID.Hex() == id {
			m.Foods = append(m.Foods[:i], m.Foods[i+1:]...)
			m.DeletedIDs = append(m.DeletedIDs, id)
			return nil
		}
	}
	return apperror.NotFound("food", id)
}

// MockPurchaseRepo is an in-memory PurchaseRepository.
type MockPurchaseRepo struct {
	Purchases  []model.Purchase
	DeletedIDs []string
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func (m *MockPurchaseRepo) Insert(_ context.Context, purchase *model.Purchase) (string, error) {
	purchase.ID = primitive.NewObjectID()
	m.Purchases = append(m.Purchases, *purchase)
	return purchase.ID.Hex(), nil
}

func (m *MockPurchaseRepo) ListByBuyer(_ context.Context, email string) ([]model.Purchase, error) {
	out := []model.Purchase{}
	for _, p := range m.Purchases {
		if p.BuyerEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPurchaseRepo) Delete(_ context.Context, id string) error {
	for i, p := range m.Purchases {
		if p.ID.Hex() == id {
			m.Purchases = append(m.Purchases[:i], m.Purchases[i+1:]...)
			m.DeletedIDs = append(m.DeletedIDs, id)
			return nil
		}
	}
	return apperror.NotFound("purchase", id)
}

func newFoodHandler(foods []model.Food) (*handler.FoodHandler, *MockFoodRepo, *MockPurchaseRepo) {
	logger := testLogger()
	foodRepo := &MockFoodRepo{Foods: foods}
	purchaseRepo := &MockPurchaseRepo{}
	foodSvc := service.NewFoodService(foodRepo, service.DefaultPageSize, logger)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, foodRepo, logger)
	return handler.NewFoodHandler(foodSvc, purchaseSvc, logger), foodRepo, purchaseRepo
}

func seedFoods(n int) []model.Food {
	foods := make([]model.Food, n)
	for i := range foods {
		foods[i] = model.Food{
			ID:         primitive.NewObjectID(),
			Name:       "Dish",
			Category:   "Pizza",
			Price:      float64(10 + i),
			Quantity:   5,
			OwnerEmail: "owner@example.com",
		}
	}
	return foods
}

func decodeFoods(t *testing.T, rr *httptest.ResponseRecorder) []model.Food {
	t.Helper()
	var foods []model.Food
	err := json.NewDecoder(rr.Body).Decode(&foods)
	assert.NoError(t, err)
	return foods
}

func TestFoodHandler_HandleQuery(t *testing.T) {
	t.Run("id returns a one-element list", func(t *testing.T) {
		seed := seedFoods(3)
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/foods?id="+seed[1].ID.Hex(), nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		foods := decodeFoods(t, rr)
		assert.Len(t, foods, 1)
		assert.Equal(t, seed[1].ID, foods[0].ID)
	})

	t.Run("id takes precedence over the other parameters", func(t *testing.T) {
		seed := seedFoods(3)
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/foods?id="+seed[0].ID.Hex()+"&page=true&activePage=2&email=x@y.z", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		foods := decodeFoods(t, rr)
		assert.Len(t, foods, 1)
		assert.Equal(t, seed[0].ID, foods[0].ID)
	})

	t.Run("unknown id reads as an empty list", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(2))

		req := httptest.NewRequest(http.MethodGet, "/foods?id="+primitive.NewObjectID().Hex(), nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeFoods(t, rr))
	})

	t.Run("malformed id is a validation error", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(1))

		req := httptest.NewRequest(http.MethodGet, "/foods?id=not-hex", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("page returns the raw document count", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(20))

		req := httptest.NewRequest(http.MethodGet, "/foods?page=true", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body map[string]int64
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, int64(20), body["pages"])
	})

	t.Run("activePage selects one window", func(t *testing.T) {
		seed := seedFoods(20)
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/foods?activePage=3", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		foods := decodeFoods(t, rr)
		assert.Len(t, foods, 2)
		assert.Equal(t, seed[18].ID, foods[0].ID)
	})

	t.Run("pageNo is accepted as an alias", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(12))

		req := httptest.NewRequest(http.MethodGet, "/foods?pageNo=2", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeFoods(t, rr), 3)
	})

	t.Run("non-numeric activePage is rejected", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(2))

		req := httptest.NewRequest(http.MethodGet, "/foods?activePage=two", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("email filters by owner", func(t *testing.T) {
		seed := seedFoods(3)
		seed[1].OwnerEmail = "other@example.com"
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/foods?email=other@example.com", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		foods := decodeFoods(t, rr)
		assert.Len(t, foods, 1)
		assert.Equal(t, seed[1].ID, foods[0].ID)
	})

	t.Run("search capitalizes the literal term", func(t *testing.T) {
		h, repo, _ := newFoodHandler(seedFoods(3))

		req := httptest.NewRequest(http.MethodGet, "/foods?search=pizza", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Pizza", repo.CapturedTerm)
		assert.Len(t, decodeFoods(t, rr), 3)
	})

	t.Run("no parameters lists everything", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(4))

		req := httptest.NewRequest(http.MethodGet, "/foods", nil)
		rr := httptest.NewRecorder()
		h.HandleQuery(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeFoods(t, rr), 4)
	})
}

func TestFoodHandler_HandleSearch(t *testing.T) {
	t.Run("the term all returns the first nine", func(t *testing.T) {
		h, repo, _ := newFoodHandler(seedFoods(15))

		req := httptest.NewRequest(http.MethodGet, "/search?search=all", nil)
		rr := httptest.NewRecorder()
		h.HandleSearch(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeFoods(t, rr), 9)
		assert.Empty(t, repo.CapturedTerm, "the literal shortcut must not reach full-text search")
	})

	t.Run("any other term reaches full-text search as sent", func(t *testing.T) {
		h, repo, _ := newFoodHandler(seedFoods(3))

		req := httptest.NewRequest(http.MethodGet, "/search?search=kacchi", nil)
		rr := httptest.NewRecorder()
		h.HandleSearch(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "kacchi", repo.CapturedTerm)
	})
}

func TestFoodHandler_HandleCreate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		h, repo, _ := newFoodHandler(nil)

		body := `{"foodName":"Kacchi","foodCategory":"Biryani","foodPrice":12.5,"foodQuantity":10,"purchase":99}`
		req := httptest.NewRequest(http.MethodPost, "/foods", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var ack struct {
			Acknowledged bool   `json:"acknowledged"`
			InsertedID   string `json:"insertedId"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
		assert.True(t, ack.Acknowledged)
		assert.NotEmpty(t, ack.InsertedID)

		assert.Len(t, repo.Foods, 1)
		assert.Equal(t, 0, repo.Foods[0].PurchaseCount, "purchase count must start at zero")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		h, _, _ := newFoodHandler(nil)

		req := httptest.NewRequest(http.MethodPost, "/foods", bytes.NewBufferString(`{"foodName":`))
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestFoodHandler_HandleUpdate(t *testing.T) {
	t.Run("existing document", func(t *testing.T) {
		seed := seedFoods(1)
		h, repo, _ := newFoodHandler(seed)

		body := `{"foodName":"Renamed","foodPrice":20,"email":"stranger@example.com"}`
		req := httptest.NewRequest(http.MethodPut, "/update?id="+seed[0].ID.Hex(), bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var ack struct {
			Acknowledged  bool  `json:"acknowledged"`
			MatchedCount  int64 `json:"matchedCount"`
			ModifiedCount int64 `json:"modifiedCount"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
		assert.True(t, ack.Acknowledged)
		assert.Equal(t, int64(1), ack.MatchedCount)

		assert.Equal(t, "Renamed", repo.Foods[0].Name)
		assert.Equal(t, "owner@example.com", repo.Foods[0].OwnerEmail, "owner email is outside the whitelist")
	})

	t.Run("missing id", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(1))

		req := httptest.NewRequest(http.MethodPut, "/update", bytes.NewBufferString(`{"foodName":"X"}`))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestFoodHandler_HandleDelete(t *testing.T) {
	t.Run("unknown db tag is rejected", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(1))

		req := httptest.NewRequest(http.MethodDelete, "/delete?id=abc&db=userDB", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("foodDB routes to the foods collection", func(t *testing.T) {
		seed := seedFoods(2)
		h, repo, purchases := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodDelete, "/delete?id="+seed[0].ID.Hex()+"&db=foodDB", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var ack struct {
			Acknowledged bool  `json:"acknowledged"`
			DeletedCount int64 `json:"deletedCount"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
		assert.True(t, ack.Acknowledged)
		assert.Equal(t, int64(1), ack.DeletedCount)

		assert.Len(t, repo.Foods, 1)
		assert.Empty(t, purchases.DeletedIDs)
	})

	t.Run("purchaseDB routes to the purchase collection", func(t *testing.T) {
		h, repo, purchases := newFoodHandler(seedFoods(1))
		p := &model.Purchase{BuyerEmail: "a@example.com"}
		id, err := purchases.Insert(context.Background(), p)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/delete?id="+id+"&db=purchaseDB", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, purchases.Purchases)
		assert.Len(t, repo.Foods, 1)
	})

	t.Run("deleting an absent id acknowledges with a zero count", func(t *testing.T) {
		h, _, _ := newFoodHandler(seedFoods(1))

		req := httptest.NewRequest(http.MethodDelete, "/delete?id="+primitive.NewObjectID().Hex()+"&db=foodDB", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var ack struct {
			Acknowledged bool  `json:"acknowledged"`
			DeletedCount int64 `json:"deletedCount"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
		assert.True(t, ack.Acknowledged)
		assert.Equal(t, int64(0), ack.DeletedCount)
	})
}

func TestFoodHandler_HandleFilterAndCategories(t *testing.T) {
	seed := seedFoods(4)
	seed[2].Category = "Dessert"
	seed[3].Category = "Dessert"

	t.Run("category filter narrows the listing", func(t *testing.T) {
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/filter?price=lowToHigh&category=Dessert", nil)
		rr := httptest.NewRecorder()
		h.HandleFilter(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		foods := decodeFoods(t, rr)
		assert.Len(t, foods, 2)
		for _, f := range foods {
			assert.Equal(t, "Dessert", f.Category)
		}
	})

	t.Run("categories are distinct in first-encounter order", func(t *testing.T) {
		h, _, _ := newFoodHandler(seed)

		req := httptest.NewRequest(http.MethodGet, "/category", nil)
		rr := httptest.NewRecorder()
		h.HandleCategories(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var categories []string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&categories))
		assert.Equal(t, []string{"Pizza", "Dessert"}, categories)
	})
}
