package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/service"
)

// PurchaseHandler serves checkout and order history.
type PurchaseHandler struct {
	purchases *service.PurchaseService
	logger    *slog.Logger
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(purchases *service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		logger:    logger,
	}
}

// HandleList serves GET /purchase-food/{email} (and the older ?email= form)
// behind the auth guard. The requested email must equal the cookie identity.
func (h *PurchaseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	verified, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("unauthorized access"))
		return
	}

	email := chi.URLParam(r, "email")
	if email == "" {
		email = r.URL.Query().Get("email")
	}

	purchases, err := h.purchases.ListForBuyer(r.Context(), verified, email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

// HandleCreate serves POST /purchase-food?id=<foodId>. Recording the
// purchase and moving the food's stock counters are both performed; if one
// fails the caller is told which.
func (h *PurchaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var purchase model.Purchase
	if err := json.NewDecoder(r.Body).Decode(&purchase); err != nil {
		h.logger.Warn("invalid purchase JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	id, err := h.purchases.Create(r.Context(), r.URL.Query().Get("id"), &purchase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertAck{Acknowledged: true, InsertedID: id})
}
