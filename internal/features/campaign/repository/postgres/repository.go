package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"veyra-backend/internal/features/campaign/models"
	"veyra-backend/internal/features/campaign/repository"
	"veyra-backend/internal/platform/postgres"
)

const campaignColumns = `
	c.id::text, c.code, COALESCE(c.project_id::text, ''), c.type, c.title,
	COALESCE(c.description, ''), c.min_tier, c.max_slots, c.starts_at, c.ends_at,
	COALESCE(c.created_by, 0), c.created_at,
	(SELECT COUNT(*) FROM campaign_entries e WHERE e.campaign_id = c.id)::int`

type scanner interface {
	Scan(dest ...any) error
}

type campaignRepository struct {
	db postgres.DB
}

func NewCampaignRepository(db postgres.DB) repository.CampaignRepository {
	return &campaignRepository{db: db}
}

func scanCampaign(row scanner) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID, &c.Code, &c.ProjectID, &c.Type, &c.Title,
		&c.Description, &c.MinTier, &c.MaxSlots, &c.StartsAt, &c.EndsAt,
		&c.CreatedBy, &c.CreatedAt,
		&c.EntriesCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaigns (code, project_id, type, title, description, min_tier, max_slots, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at`,
		c.Code, postgres.NullString(c.ProjectID), c.Type, c.Title, postgres.NullString(c.Description),
		c.MinTier, c.MaxSlots, c.StartsAt, c.EndsAt, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+campaignColumns+` FROM campaigns c WHERE c.id = $1`, id)
}

func (r *campaignRepository) GetByCode(ctx context.Context, code string) (*models.Campaign, error) {
	return r.getOne(ctx, `SELECT `+campaignColumns+` FROM campaigns c WHERE c.code = $1`, code)
}

func (r *campaignRepository) getOne(ctx context.Context, query string, arg any) (*models.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (r *campaignRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]models.Campaign, error) {
	return r.list(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		WHERE c.project_id::text = ANY($1::text[])
		ORDER BY c.created_at DESC`, projectIDs)
}

func (r *campaignRepository) ListByCreator(ctx context.Context, telegramUserID int64) ([]models.Campaign, error) {
	return r.list(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		WHERE c.created_by = $1
		ORDER BY c.created_at DESC`, telegramUserID)
}

func (r *campaignRepository) ListRecent(ctx context.Context, limit int) ([]models.Campaign, error) {
	return r.list(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		ORDER BY c.created_at DESC
		LIMIT $1`, limit)
}

func (r *campaignRepository) list(ctx context.Context, query string, args ...any) ([]models.Campaign, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepository) ListQuestions(ctx context.Context, campaignID string) ([]models.Question, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, campaign_id::text, key, label, required, field_type, options, help_text, sort_order, created_at
		FROM campaign_questions
		WHERE campaign_id = $1
		ORDER BY sort_order ASC, created_at ASC`, campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		var (
			q       models.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.CampaignID, &q.Key, &q.Label, &q.Required, &q.FieldType,
			&options, &q.HelpText, &q.SortOrder, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if len(options) > 0 {
			// options is free-form JSONB; anything but a list of strings is ignored
			_ = json.Unmarshal(options, &q.Options)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *campaignRepository) AddQuestion(ctx context.Context, q *models.Question) error {
	var options []byte
	if q.Options != nil {
		b, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode question options: %w", err)
		}
		options = b
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO campaign_questions (campaign_id, key, label, required, field_type, options, help_text, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at`,
		q.CampaignID, q.Key, q.Label, q.Required, q.FieldType, options, q.HelpText, q.SortOrder,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add question: %w", err)
	}
	return nil
}

func (r *campaignRepository) NextQuestionOrder(ctx context.Context, campaignID string) (int, error) {
	return r.nextOrder(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 10 FROM campaign_questions WHERE campaign_id = $1`, campaignID)
}

func (r *campaignRepository) ListTasks(ctx context.Context, campaignID string) ([]models.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, campaign_id::text, task_type, label, target_url, required, sort_order, created_at
		FROM campaign_tasks
		WHERE campaign_id = $1
		ORDER BY sort_order ASC, created_at ASC`, campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.TaskType, &t.Label, &t.TargetURL,
			&t.Required, &t.SortOrder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *campaignRepository) AddTask(ctx context.Context, t *models.Task) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaign_tasks (campaign_id, task_type, label, target_url, required, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at`,
		t.CampaignID, t.TaskType, t.Label, t.TargetURL, t.Required, t.SortOrder,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	return nil
}

func (r *campaignRepository) NextTaskOrder(ctx context.Context, campaignID string) (int, error) {
	return r.nextOrder(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 10 FROM campaign_tasks WHERE campaign_id = $1`, campaignID)
}

func (r *campaignRepository) nextOrder(ctx context.Context, query, campaignID string) (int, error) {
	var next int
	if err := r.db.QueryRow(ctx, query, campaignID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next sort order: %w", err)
	}
	return next, nil
}

func (r *campaignRepository) AddEntry(ctx context.Context, e *models.Entry) error {
	var answers []byte
	if e.Answers != nil {
		b, err := json.Marshal(e.Answers)
		if err != nil {
			return fmt.Errorf("failed to encode answers: %w", err)
		}
		answers = b
	}
	var badges []byte
	if len(e.Badges) > 0 {
		badges = e.Badges
	}

	// the slot check and the insert are one statement so two joins cannot
	// both take the last slot under the same snapshot
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaign_entries (campaign_id, telegram_user_id, wallet, tier, fairscore, badges, answers)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM campaigns c
			WHERE c.id = $1
				AND c.max_slots IS NOT NULL
				AND (SELECT COUNT(*) FROM campaign_entries x WHERE x.campaign_id = c.id) >= c.max_slots
		)
		RETURNING id::text, created_at`,
		e.CampaignID, e.TelegramUserID, e.Wallet, postgres.NullString(e.Tier), e.Fairscore, badges, answers,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		switch {
		case postgres.IsNoRows(err):
			return repository.ErrCampaignFull
		case postgres.IsUniqueViolation(err):
			return repository.ErrAlreadyEntered
		}
		return fmt.Errorf("failed to add entry: %w", err)
	}
	return nil
}

func (r *campaignRepository) ListEntries(ctx context.Context, campaignID string) ([]models.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id::text, e.campaign_id::text, e.telegram_user_id, e.wallet, COALESCE(e.tier, ''),
			e.fairscore::float8, e.answers, e.created_at,
			COALESCE(u.username, ''), COALESCE(u.first_name, ''), COALESCE(u.last_name, '')
		FROM campaign_entries e
		LEFT JOIN telegram_users u ON u.telegram_user_id = e.telegram_user_id
		WHERE e.campaign_id = $1
		ORDER BY e.created_at DESC`, campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var (
			e       models.Entry
			answers []byte
		)
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.TelegramUserID, &e.Wallet, &e.Tier,
			&e.Fairscore, &answers, &e.CreatedAt,
			&e.Username, &e.FirstName, &e.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Answers = map[string]string{}
		if len(answers) > 0 {
			_ = json.Unmarshal(answers, &e.Answers)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
