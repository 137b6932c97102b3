package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

// PurchaseService handles checkout and order history. A purchase touches two
// documents, the purchase record and the food item's stock counters, so it
// holds both repositories.
type PurchaseService struct {
	repo   repository.PurchaseRepository
	foods  repository.FoodRepository
	logger *slog.Logger
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(repo repository.PurchaseRepository, foods repository.FoodRepository, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{
		repo:   repo,
		foods:  foods,
		logger: logger,
	}
}

// ListForBuyer returns the order history for email, but only when the
// verified identity matches it. Any mismatch is Forbidden, whether or not
// the email exists.
func (s *PurchaseService) ListForBuyer(ctx context.Context, verifiedEmail, email string) ([]model.Purchase, error) {
	if verifiedEmail != email {
		return nil, apperror.Forbidden(forbiddenMessage)
	}

	purchases, err := s.repo.ListByBuyer(ctx, email)
	if err != nil {
		s.logger.Error("failed to list purchases",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return purchases, nil
}

// Create records a checkout. Two effects must both land:
//
//  1. the food item's quantity goes down and its purchase count goes up by
//     the purchased amount, as one atomic field-level increment;
//  2. the purchase record is inserted.
//
// The increment runs first. If the insert then fails, a compensating
// increment with the signs reversed restores the stock counters, and the
// caller is told the purchase was not recorded. If the compensation itself
// also fails, both errors are reported together so the inconsistency is
// never silent.
func (s *PurchaseService) Create(ctx context.Context, foodID string, purchase *model.Purchase) (string, error) {
	foodID = strings.TrimSpace(foodID)
	if foodID == "" {
		return "", apperror.ValidationFailed("id", "food id is required")
	}

	if err := s.foods.AdjustSale(ctx, foodID, purchase.Quantity); err != nil {
		return "", fmt.Errorf("adjusting stock for food %s: %w", foodID, err)
	}

	purchase.FoodID = foodID
	id, err := s.repo.Insert(ctx, purchase)
	if err != nil {
		s.logger.Error("purchase insert failed after stock adjustment, compensating",
			slog.String("foodId", foodID),
			slog.Int("quantity", purchase.Quantity),
			slog.String("error", err.Error()),
		)
		if cerr := s.foods.AdjustSale(ctx, foodID, -purchase.Quantity); cerr != nil {
			s.logger.Error("stock compensation failed, counters are inconsistent",
				slog.String("foodId", foodID),
				slog.String("error", cerr.Error()),
			)
			return "", errors.Join(
				fmt.Errorf("recording purchase: %w", err),
				fmt.Errorf("compensating stock adjustment: %w", cerr),
			)
		}
		return "", fmt.Errorf("recording purchase: %w", err)
	}

	s.logger.Info("purchase recorded",
		slog.String("id", id),
		slog.String("foodId", foodID),
		slog.Int("quantity", purchase.Quantity),
	)
	return id, nil
}

// Delete removes the purchase record with the given id.
func (s *PurchaseService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "purchase id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("purchase deleted", slog.String("id", id))
	return nil
}
