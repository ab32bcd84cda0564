// Package promo manages promotional grant codes.
package promo

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/storage"
)

var (
	ErrEmptyCode     = errors.New("promo code required")
	ErrBadWindow     = errors.New("promo window end must be after start")
	ErrBadUseLimit   = errors.New("promo use limit must be positive")
	ErrBadLimitType  = errors.New("unknown promo limit type")
	ErrNoPromoItems  = errors.New("promo needs at least one item")
	ErrPromoNotFound = errors.New("no promos with that code")
)

const (
	promoIDLength   = 16
	promoIDAlphabet = "0123456789abcdef"
)

// Service owns promo lifecycle against the lobby store.
type Service struct {
	store  storage.Store
	random random.Random
	logger *slog.Logger
}

// New creates the promo service.
func New(store storage.Store, rng random.Random, logger *slog.Logger) *Service {
	return &Service{store: store, random: rng, logger: logger}
}

// Create validates and inserts a promo. Codes are deliberately not
// unique; creating a second promo with an existing code succeeds and
// reports duplicate=true so the caller can surface a notice.
func (s *Service) Create(ctx context.Context, promo *model.Promo) (duplicate bool, err error) {
	promo.Code = strings.TrimSpace(promo.Code)
	if promo.Code == "" {
		return false, ErrEmptyCode
	}
	if promo.EndTime <= promo.StartTime {
		return false, ErrBadWindow
	}
	if promo.UseLimit <= 0 {
		return false, ErrBadUseLimit
	}
	if !promo.LimitType.Valid() {
		return false, ErrBadLimitType
	}
	if len(promo.Items) == 0 {
		return false, ErrNoPromoItems
	}

	existing, err := s.store.ListPromosByCode(ctx, promo.Code)
	if err != nil {
		return false, err
	}
	duplicate = len(existing) > 0

	promo.ID = s.random.String(promoIDLength, promoIDAlphabet)
	if err := s.store.InsertPromo(ctx, promo); err != nil {
		return false, err
	}

	s.logger.Info("promo created", "code", promo.Code, "duplicate", duplicate)
	return duplicate, nil
}

// List returns all promos ordered by code, then start time.
func (s *Service) List(ctx context.Context) ([]*model.Promo, error) {
	promos, err := s.store.ListPromos(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(promos, func(i, j int) bool {
		if promos[i].Code != promos[j].Code {
			return promos[i].Code < promos[j].Code
		}
		return promos[i].StartTime < promos[j].StartTime
	})
	return promos, nil
}

// DeleteByCode removes every promo carrying a code and returns how many
// were removed. An unknown code is an error so admins notice typos.
func (s *Service) DeleteByCode(ctx context.Context, code string) (int, error) {
	removed, err := s.store.DeletePromosByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrPromoNotFound
	}
	s.logger.Info("promos deleted", "code", code, "count", removed)
	return removed, nil
}
