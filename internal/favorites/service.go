package favorites

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Service manages a user's favorites.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the favorites service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With(slog.String("component", "favorites"))}
}

// Add marks the product as a favorite of the user. Adding twice succeeds.
func (s *Service) Add(ctx context.Context, userID, productID int64) error {
	if err := checkIDs(userID, productID); err != nil {
		return err
	}
	return s.repo.Add(ctx, userID, productID)
}

// Remove unmarks the product. Removing an absent favorite succeeds.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	if err := checkIDs(userID, productID); err != nil {
		return err
	}
	return s.repo.Remove(ctx, userID, productID)
}

// IsFavorite reports whether the product is marked. Failures read as false.
func (s *Service) IsFavorite(ctx context.Context, userID, productID int64) bool {
	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		s.logger.Error("favorite lookup", slog.Int64("user_id", userID), slog.Any("error", err))
		return false
	}
	return ok
}

// List returns the user's favorites, newest first. Failures read as empty.
func (s *Service) List(ctx context.Context, userID int64) []Favorite {
	out, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("list favorites", slog.Int64("user_id", userID), slog.Any("error", err))
		return []Favorite{}
	}
	if out == nil {
		return []Favorite{}
	}
	return out
}

func checkIDs(userID, productID int64) error {
	if userID <= 0 || productID <= 0 {
		return shared.Invalid("user and product ids must be positive")
	}
	return nil
}
