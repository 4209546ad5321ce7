package postgres

import (
	"context"
	"fmt"

	"veyra-backend/internal/features/user/models"
	"veyra-backend/internal/features/user/repository"
	"veyra-backend/internal/platform/postgres"
)

type postgresRepository struct {
	db postgres.DB
}

func NewPostgresRepository(db postgres.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO telegram_users (telegram_user_id, username, first_name, last_name, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NOW(), NOW())
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			username = COALESCE(EXCLUDED.username, telegram_users.username),
			first_name = COALESCE(EXCLUDED.first_name, telegram_users.first_name),
			last_name = COALESCE(EXCLUDED.last_name, telegram_users.last_name),
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		user.TelegramUserID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT telegram_user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
			COALESCE(saved_wallet, ''), COALESCE(last_known_tier, ''), last_known_fairscore::float8,
			created_at, updated_at
		FROM telegram_users
		WHERE telegram_user_id = $1
	`

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.TelegramUserID, &user.Username, &user.FirstName, &user.LastName,
		&user.SavedWallet, &user.LastKnownTier, &user.LastKnownFairscore,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *postgresRepository) SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error {
	query := `
		INSERT INTO telegram_users (telegram_user_id, saved_wallet, last_known_tier, last_known_fairscore, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			saved_wallet = EXCLUDED.saved_wallet,
			last_known_tier = EXCLUDED.last_known_tier,
			last_known_fairscore = EXCLUDED.last_known_fairscore,
			updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, id, wallet, tier, fairscore); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error {
	query := `
		UPDATE telegram_users
		SET last_known_tier = $2, last_known_fairscore = $3, updated_at = NOW()
		WHERE telegram_user_id = $1
	`

	if _, err := r.db.Exec(ctx, query, id, tier, fairscore); err != nil {
		return fmt.Errorf("failed to update last known score: %w", err)
	}
	return nil
}
