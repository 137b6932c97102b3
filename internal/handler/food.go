package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
	"github.com/sakif/dishdash-server/internal/service"
)

// FoodHandler serves the foods collection: the multiplexed query endpoint,
// search, filter, category, top-food, and the write operations. It also owns
// the tagged delete, which can target either collection, so it carries the
// purchase service too.
type FoodHandler struct {
	foods     *service.FoodService
	purchases *service.PurchaseService
	logger    *slog.Logger
}

// NewFoodHandler creates a FoodHandler.
func NewFoodHandler(foods *service.FoodService, purchases *service.PurchaseService, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{
		foods:     foods,
		purchases: purchases,
		logger:    logger,
	}
}

// HandleQuery multiplexes GET /foods on its query parameters, first match
// wins:
//
//	id         → that single document, as a one-element list
//	page       → {"pages": <total document count>}
//	activePage → one pagination window (pageNo accepted as an alias)
//	email      → all documents owned by that email
//	search     → legacy capitalized literal match on name or category
//	(none)     → every document
func (h *FoodHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("id") != "":
		food, err := h.foods.GetByID(r.Context(), q.Get("id"))
		if errors.Is(err, apperror.ErrNotFound) {
			// Absent documents read as an empty collection, not an error.
			writeJSON(w, http.StatusOK, []model.Food{})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []model.Food{*food})

	case q.Get("page") != "":
		total, err := h.foods.PageTotal(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"pages": total})

	case q.Get("activePage") != "" || q.Get("pageNo") != "":
		raw := q.Get("activePage")
		if raw == "" {
			raw = q.Get("pageNo")
		}
		pageNo, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("activePage", "page number must be an integer"))
			return
		}
		foods, err := h.foods.Page(r.Context(), pageNo)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, foods)

	case q.Get("email") != "":
		foods, err := h.foods.ListByOwner(r.Context(), q.Get("email"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, foods)

	case q.Get("search") != "":
		foods, err := h.foods.SearchLiteral(r.Context(), q.Get("search"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, foods)

	default:
		foods, err := h.foods.ListAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, foods)
	}
}

// HandleMyFood serves GET /myFood/{email} behind the auth guard. The path
// email must equal the cookie identity; a mismatch is Forbidden regardless
// of whether the email exists.
func (h *FoodHandler) HandleMyFood(w http.ResponseWriter, r *http.Request) {
	verified, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("unauthorized access"))
		return
	}

	foods, err := h.foods.ListMine(r.Context(), verified, chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// HandleCreate serves POST /foods. The stored purchase count starts at zero
// no matter what the body claims.
func (h *FoodHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var food model.Food
	if err := json.NewDecoder(r.Body).Decode(&food); err != nil {
		h.logger.Warn("invalid food JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	id, err := h.foods.Create(r.Context(), &food)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertAck{Acknowledged: true, InsertedID: id})
}

// HandleSearch serves GET /search. The literal term "all" returns the first
// nine documents; anything else goes to the store's fuzzy full-text search.
func (h *FoodHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	foods, err := h.foods.SearchText(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// HandleTop serves GET /top-food: the six highest purchase counts,
// descending.
func (h *FoodHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	foods, err := h.foods.Top(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// HandleFilter serves GET /filter?price=&category= through the decision
// table.
func (h *FoodHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	foods, err := h.foods.Filter(r.Context(), q.Get("price"), q.Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// HandleCategories serves GET /category: distinct category values in
// first-encounter order.
func (h *FoodHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.foods.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleUpdate serves PUT /update?id=. Only the whitelisted fields in
// model.FoodUpdate are applied; everything else in the body is dropped.
func (h *FoodHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update model.FoodUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("invalid food update JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	res, err := h.foods.Update(r.Context(), r.URL.Query().Get("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Acknowledged bool `json:"acknowledged"`
		*repository.UpdateResult
	}{true, res})
}

// HandleDelete serves DELETE /delete?id=&db=. The db tag is resolved to a
// typed target here, once; nothing downstream compares the raw string.
// Deleting an id that is already gone acknowledges with a zero count.
func (h *FoodHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")

	target, err := parseDeleteTarget(q.Get("db"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch target {
	case repository.DeleteTargetFood:
		err = h.foods.Delete(r.Context(), id)
	case repository.DeleteTargetPurchase:
		err = h.purchases.Delete(r.Context(), id)
	}

	if errors.Is(err, apperror.ErrNotFound) {
		writeJSON(w, http.StatusOK, deleteAck{Acknowledged: true, DeletedCount: 0})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteAck{Acknowledged: true, DeletedCount: 1})
}

// parseDeleteTarget maps the wire tag to its typed target.
func parseDeleteTarget(tag string) (repository.DeleteTarget, error) {
	switch tag {
	case "foodDB":
		return repository.DeleteTargetFood, nil
	case "purchaseDB":
		return repository.DeleteTargetPurchase, nil
	default:
		return 0, apperror.ValidationFailed("db", "db must be foodDB or purchaseDB")
	}
}
