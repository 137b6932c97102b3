package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/service"
)

// CollectionHandler serves the two verbatim collections, users and gallery:
// list everything, insert whatever arrives. No validation, no deduplication;
// that is the contract, not an omission.
type CollectionHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(accounts *service.AccountService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleListUsers serves GET /users.
func (h *CollectionHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// HandleCreateUser serves POST /users.
func (h *CollectionHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		h.logger.Warn("invalid user JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	id, err := h.accounts.CreateUser(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertAck{Acknowledged: true, InsertedID: id})
}

// HandleListGallery serves GET /gallery.
func (h *CollectionHandler) HandleListGallery(w http.ResponseWriter, r *http.Request) {
	docs, err := h.accounts.ListGallery(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// HandleCreateGallery serves POST /gallery.
func (h *CollectionHandler) HandleCreateGallery(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		h.logger.Warn("invalid gallery JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	id, err := h.accounts.CreateGalleryItem(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertAck{Acknowledged: true, InsertedID: id})
}

// decodeDocument reads a request body as a schemaless document.
func decodeDocument(r *http.Request) (model.Document, error) {
	var doc model.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
