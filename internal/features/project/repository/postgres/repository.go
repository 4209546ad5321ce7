package postgres

import (
	"context"
	"fmt"

	"veyra-backend/internal/features/project/models"
	"veyra-backend/internal/features/project/repository"
	"veyra-backend/internal/platform/postgres"
)

type projectRepository struct {
	db postgres.DB
}

func NewProjectRepository(db postgres.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) IsProjectAdmin(ctx context.Context, projectID string, telegramUserID int64) (bool, error) {
	if !postgres.IsUUID(projectID) {
		return false, nil
	}

	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_admins WHERE project_id = $1 AND telegram_user_id = $2
		)`, projectID, telegramUserID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check project admin: %w", err)
	}
	return ok, nil
}

func (r *projectRepository) ListForAdmin(ctx context.Context, telegramUserID int64) ([]models.Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id::text, p.name, p.created_at
		FROM project_admins pa
		JOIN projects p ON p.id = pa.project_id
		WHERE pa.telegram_user_id = $1
		ORDER BY p.created_at`, telegramUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) GetOrCreateByName(ctx context.Context, name string) (*models.Project, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	var p models.Project
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id::text, name, created_at`, name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}
	return &p, nil
}

func (r *projectRepository) AddAdmin(ctx context.Context, projectID string, telegramUserID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO project_admins (project_id, telegram_user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, telegram_user_id) DO NOTHING`,
		projectID, telegramUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to add project admin: %w", err)
	}
	return nil
}

func (r *projectRepository) GetInvite(ctx context.Context, code string) (*models.InviteCode, error) {
	var inv models.InviteCode
	err := r.db.QueryRow(ctx, `
		SELECT code, project_name, max_uses, uses, expires_at, created_at
		FROM project_invite_codes WHERE code = $1`, code,
	).Scan(&inv.Code, &inv.ProjectName, &inv.MaxUses, &inv.Uses, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invite code: %w", err)
	}
	return &inv, nil
}

func (r *projectRepository) ClaimInvite(ctx context.Context, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE project_invite_codes SET uses = uses + 1
		WHERE code = $1
			AND (max_uses IS NULL OR uses < max_uses)
			AND (expires_at IS NULL OR expires_at >= NOW())`, code,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim invite code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
