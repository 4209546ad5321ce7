package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"veyra-backend/internal/features/event/models"
	"veyra-backend/internal/features/event/repository"
	"veyra-backend/internal/platform/postgres"
)

type eventRepository struct {
	db  postgres.DB
	now func() time.Time
}

func NewEventRepository(db postgres.DB) repository.EventRepository {
	return &eventRepository{db: db, now: time.Now}
}

func (r *eventRepository) Log(ctx context.Context, telegramUserID int64, kind string, meta map[string]interface{}) error {
	var metaJSON []byte
	if meta != nil {
		var err error
		if metaJSON, err = json.Marshal(meta); err != nil {
			return fmt.Errorf("marshal event meta: %w", err)
		}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO bot_events (telegram_user_id, kind, meta, created_at) VALUES ($1, $2, $3, $4)`,
		telegramUserID, kind, metaJSON, r.now(),
	)
	return err
}

func (r *eventRepository) LatestSince(ctx context.Context, telegramUserID int64, kind string, since time.Time) (*models.Event, error) {
	var (
		e    models.Event
		meta []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, telegram_user_id, kind, meta, created_at
		FROM bot_events
		WHERE telegram_user_id = $1 AND kind = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`,
		telegramUserID, kind, since,
	).Scan(&e.ID, &e.TelegramUserID, &e.Kind, &meta, &e.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &e.Meta)
	}
	return &e, nil
}
