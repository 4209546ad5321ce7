package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/common/validation"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/campaign/models"
	"veyra-backend/internal/features/campaign/repository"
	scoremodels "veyra-backend/internal/features/score/models"
)

// Reasons attached to join and apply failures so the bot can pick its reply.
const (
	ReasonNotFound       = "campaign_not_found"
	ReasonAmbassadorOnly = "ambassador_only"
	ReasonNotAmbassador  = "not_ambassador"
	ReasonNoWallet       = "no_wallet"
	ReasonNotEligible    = "not_eligible"
	ReasonFull           = "campaign_full"
	ReasonAlreadyEntered = "already_entered"
)

const noWalletMessage = "No wallet saved for this Telegram user. Verify wallet in the bot first."

// Reason returns the reason detail of a join or apply error, or "".
func Reason(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return ""
	}
	r, _ := appErr.Details["reason"].(string)
	return r
}

func notEligible(minTier, tier string) *apperrors.AppError {
	return apperrors.NewForbiddenError(fmt.Sprintf("Not eligible. Requires %s, your tier is %s.", minTier, tier)).
		WithDetail("reason", ReasonNotEligible).
		WithDetail("required", minTier).
		WithDetail("tier", tier)
}

// Join enters a drop or allowlist campaign by code.
func (s *CampaignService) Join(ctx context.Context, telegramUserID int64, code string) (*models.JoinResult, error) {
	c, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.IsAmbassador() {
		return nil, apperrors.NewBadRequestError("That is an ambassador campaign. Use /apply " + c.Code).
			WithDetail("reason", ReasonAmbassadorOnly).
			WithDetail("code", c.Code)
	}

	wallet, err := s.savedWallet(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	score, err := s.eligibleScore(ctx, c, wallet)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		CampaignID:     c.ID,
		TelegramUserID: telegramUserID,
		Wallet:         wallet,
		Tier:           score.Tier,
		Fairscore:      &score.Fairscore,
	}
	if len(score.Badges) > 0 {
		if b, err := json.Marshal(score.Badges); err == nil {
			entry.Badges = b
		}
	}
	if err := s.addEntry(ctx, entry); err != nil {
		return nil, err
	}

	logger.Info().
		Int64("user_id", telegramUserID).
		Str("code", c.Code).
		Str("tier", score.Tier).
		Msg("Campaign joined")

	return &models.JoinResult{Campaign: c, Entry: entry}, nil
}

// StartApplication checks eligibility for an ambassador campaign and opens
// a one-shot form session for the application link.
func (s *CampaignService) StartApplication(ctx context.Context, p *authmodels.Principal, code string) (*models.ApplyStart, error) {
	c, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsAmbassador() {
		return nil, apperrors.NewBadRequestError("That is not an ambassador campaign. Use /join " + c.Code).
			WithDetail("reason", ReasonNotAmbassador).
			WithDetail("code", c.Code)
	}

	wallet, err := s.savedWallet(ctx, p.TelegramUserID)
	if err != nil {
		return nil, err
	}
	score, err := s.eligibleScore(ctx, c, wallet)
	if err != nil {
		return nil, err
	}

	fs, err := s.forms.OpenFormSession(ctx, p, c.ID)
	if err != nil {
		return nil, err
	}

	return &models.ApplyStart{
		Campaign:  c,
		Wallet:    wallet,
		Tier:      score.Tier,
		Fairscore: score.Fairscore,
		SessionID: fs.ID,
	}, nil
}

// ApplySession loads the application form behind a form session.
func (s *CampaignService) ApplySession(ctx context.Context, p *authmodels.Principal, sid string) (*models.ApplySession, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, apperrors.NewValidationError("sid", "Missing sid")
	}

	c, wallet, score, err := s.applicationContext(ctx, p, sid)
	if err != nil {
		return nil, err
	}

	qs, err := s.repo.ListQuestions(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewStorageError("list_questions", err)
	}
	questions := make([]models.FormQuestion, len(qs))
	for i, q := range qs {
		questions[i] = models.FormQuestionFrom(q)
	}

	return &models.ApplySession{
		SessionID: sid,
		Campaign: models.FormCampaign{
			ID:          c.ID,
			Code:        c.Code,
			Title:       c.Title,
			Description: c.Description,
			Questions:   questions,
		},
		Profile: models.ApplicantProfile{
			Wallet:    wallet,
			Tier:      score.Tier,
			Fairscore: score.Fairscore,
		},
	}, nil
}

// Submit stores the application and burns the form session.
func (s *CampaignService) Submit(ctx context.Context, p *authmodels.Principal, sid string, answers map[string]string) (*models.Entry, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, apperrors.NewValidationError("sid", "Missing sid")
	}

	c, wallet, score, err := s.applicationContext(ctx, p, sid)
	if err != nil {
		return nil, err
	}

	qs, err := s.repo.ListQuestions(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewStorageError("list_questions", err)
	}
	clean, err := checkAnswers(qs, answers)
	if err != nil {
		return nil, err
	}

	// claim the session first; a second submit fails here instead of racing the insert
	if err := s.forms.ConsumeFormSession(ctx, sid); err != nil {
		return nil, err
	}

	entry := &models.Entry{
		CampaignID:     c.ID,
		TelegramUserID: p.TelegramUserID,
		Wallet:         wallet,
		Tier:           score.Tier,
		Fairscore:      &score.Fairscore,
		Answers:        clean,
	}
	if err := s.addEntry(ctx, entry); err != nil {
		// no entry was stored, so the session stays usable for a retry
		if rerr := s.forms.ReleaseFormSession(ctx, sid); rerr != nil {
			logger.Error().Err(rerr).Str("sid", sid).Msg("Failed to release form session")
		}
		return nil, err
	}

	logger.Info().
		Int64("user_id", p.TelegramUserID).
		Str("code", c.Code).
		Msg("Application submitted")

	return entry, nil
}

// applicationContext runs the checks shared by loading and submitting a form.
func (s *CampaignService) applicationContext(ctx context.Context, p *authmodels.Principal, sid string) (*models.Campaign, string, *scoremodels.Score, error) {
	fs, err := s.forms.ValidateFormSession(ctx, sid, p)
	if err != nil {
		return nil, "", nil, err
	}

	wallet, err := s.savedWallet(ctx, p.TelegramUserID)
	if err != nil {
		return nil, "", nil, err
	}

	c, err := s.repo.GetByID(ctx, fs.CampaignID)
	if err != nil {
		return nil, "", nil, apperrors.NewStorageError("get_campaign", err)
	}
	if c == nil {
		return nil, "", nil, apperrors.NewNotFoundError("campaign", fs.CampaignID)
	}
	if !c.IsAmbassador() {
		return nil, "", nil, apperrors.NewBadRequestError("not an ambassador campaign").
			WithDetail("reason", ReasonNotAmbassador)
	}

	score, err := s.eligibleScore(ctx, c, wallet)
	if err != nil {
		return nil, "", nil, err
	}
	return c, wallet, score, nil
}

func checkAnswers(qs []models.Question, answers map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(qs))
	for _, q := range qs {
		v := validation.Clip(answers[q.Key], validation.MaxAnswerLength)
		if v == "" {
			if q.Required {
				return nil, apperrors.NewValidationError(q.Key, "Missing answer: "+q.Label)
			}
			continue
		}
		clean[q.Key] = v
	}
	return clean, nil
}

func (s *CampaignService) byCode(ctx context.Context, code string) (*models.Campaign, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("code", "Missing campaign code")
	}
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperrors.NewStorageError("get_campaign", err)
	}
	if c == nil {
		return nil, apperrors.NewNotFoundError("campaign", code).WithDetail("reason", ReasonNotFound)
	}
	return c, nil
}

func (s *CampaignService) savedWallet(ctx context.Context, telegramUserID int64) (string, error) {
	u, err := s.users.GetUser(ctx, telegramUserID)
	if err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		return "", err
	}
	if u == nil || strings.TrimSpace(u.SavedWallet) == "" {
		return "", apperrors.NewBadRequestError(noWalletMessage).WithDetail("reason", ReasonNoWallet)
	}
	return strings.TrimSpace(u.SavedWallet), nil
}

func (s *CampaignService) eligibleScore(ctx context.Context, c *models.Campaign, wallet string) (*scoremodels.Score, error) {
	score, err := s.scores.Fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}
	score.Tier = scoremodels.NormalizeTier(score.Tier)
	if !scoremodels.TierMeets(c.MinTier, score.Tier) {
		return nil, notEligible(c.MinTier, score.Tier)
	}
	return score, nil
}

func (s *CampaignService) addEntry(ctx context.Context, e *models.Entry) error {
	err := s.repo.AddEntry(ctx, e)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCampaignFull):
		return apperrors.NewConflictError("campaign", "This campaign is full (max slots reached).").
			WithDetail("reason", ReasonFull)
	case errors.Is(err, repository.ErrAlreadyEntered):
		return apperrors.NewConflictError("campaign_entry", "Already joined this campaign.").
			WithDetail("reason", ReasonAlreadyEntered)
	default:
		return apperrors.NewStorageError("add_entry", err)
	}
}
