package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepositoryImpl struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) settings.SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

// Get implements settings.SettingsRepository.
func (r *settingsRepositoryImpl) Get(ctx context.Context) (settings.Settings, error) {
	q := GetQuerier(ctx, r.db)

	var s settings.Settings
	err := q.QueryRow(ctx, `
		SELECT default_leave_allocation, sick_leave_allocation, updated_at
		FROM settings
		WHERE id = 1
	`).Scan(&s.DefaultLeaveAllocation, &s.SickLeaveAllocation, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Settings{}, settings.ErrSettingsNotFound
		}
		return settings.Settings{}, err
	}
	return s, nil
}

// Upsert implements settings.SettingsRepository.
func (r *settingsRepositoryImpl) Upsert(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO settings (id, default_leave_allocation, sick_leave_allocation, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET default_leave_allocation = EXCLUDED.default_leave_allocation,
			sick_leave_allocation = EXCLUDED.sick_leave_allocation,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, s.DefaultLeaveAllocation, s.SickLeaveAllocation).Scan(&s.UpdatedAt)
	if err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}
