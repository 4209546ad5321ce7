package repository

import (
	"context"
	"errors"

	"veyra-backend/internal/features/campaign/models"
)

var (
	ErrDuplicateCode  = errors.New("campaign code already exists")
	ErrAlreadyEntered = errors.New("user already entered campaign")
	ErrCampaignFull   = errors.New("campaign has no free slots")
)

// CampaignRepository returns nil, nil from the Get methods when nothing matches.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	GetByCode(ctx context.Context, code string) (*models.Campaign, error)
	ListByProjects(ctx context.Context, projectIDs []string) ([]models.Campaign, error)
	ListByCreator(ctx context.Context, telegramUserID int64) ([]models.Campaign, error)
	ListRecent(ctx context.Context, limit int) ([]models.Campaign, error)

	ListQuestions(ctx context.Context, campaignID string) ([]models.Question, error)
	AddQuestion(ctx context.Context, q *models.Question) error
	NextQuestionOrder(ctx context.Context, campaignID string) (int, error)

	ListTasks(ctx context.Context, campaignID string) ([]models.Task, error)
	AddTask(ctx context.Context, t *models.Task) error
	NextTaskOrder(ctx context.Context, campaignID string) (int, error)

	// AddEntry inserts unless the campaign is full (ErrCampaignFull) or the
	// user already has an entry (ErrAlreadyEntered).
	AddEntry(ctx context.Context, e *models.Entry) error
	ListEntries(ctx context.Context, campaignID string) ([]models.Entry, error)
}
