package service

import (
	"context"
	"strings"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/common/validation"
	"veyra-backend/internal/features/score/cache"
	"veyra-backend/internal/features/score/models"
)

// Fetcher is the upstream score source.
type Fetcher interface {
	Fetch(ctx context.Context, wallet string) (*models.Score, error)
}

type ScoreService struct {
	client Fetcher
	cache  cache.Cache
	now    func() time.Time
}

func NewScoreService(client Fetcher, c cache.Cache) *ScoreService {
	return &ScoreService{client: client, cache: c, now: time.Now}
}

// Lookup validates the wallet and returns a cached score when one is fresh.
func (s *ScoreService) Lookup(ctx context.Context, wallet string) (*models.Result, error) {
	wallet, err := CheckWallet(wallet)
	if err != nil {
		return nil, err
	}

	if e, ok := s.cache.Get(ctx, wallet); ok {
		return &models.Result{Score: e.Score, Cached: true, Age: s.now().Sub(e.FetchedAt)}, nil
	}

	score, err := s.client.Fetch(ctx, wallet)
	if err != nil {
		logger.Warn().Err(err).Str("wallet", wallet).Msg("Score lookup failed")
		return nil, err
	}
	s.cache.Set(ctx, wallet, score)
	return &models.Result{Score: score}, nil
}

// Fetch bypasses the cache.
func (s *ScoreService) Fetch(ctx context.Context, wallet string) (*models.Score, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, apperrors.NewValidationError("wallet", "Missing wallet. Call /api/fairscore?wallet=<pubkey>")
	}
	return s.client.Fetch(ctx, wallet)
}

// CheckWallet trims and validates an EVM or Solana address.
func CheckWallet(wallet string) (string, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return "", apperrors.NewValidationError("wallet", "Missing wallet")
	}
	if !validation.IsWallet(wallet) {
		return "", apperrors.NewValidationError("wallet", "Invalid wallet format")
	}
	return wallet, nil
}
