package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
)

type settingsRepositoryImpl struct {
	store *Store
}

func NewSettingsRepository(store *Store) settings.SettingsRepository {
	return &settingsRepositoryImpl{store: store}
}

// Get implements settings.SettingsRepository.
func (r *settingsRepositoryImpl) Get(ctx context.Context) (settings.Settings, error) {
	var (
		s         settings.Settings
		updatedAt string
	)
	err := r.store.querier(ctx).QueryRowContext(ctx, `
		SELECT default_leave_allocation, sick_leave_allocation, updated_at
		FROM settings
		WHERE id = 1`,
	).Scan(&s.DefaultLeaveAllocation, &s.SickLeaveAllocation, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settings.Settings{}, settings.ErrSettingsNotFound
		}
		return settings.Settings{}, err
	}
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// Upsert implements settings.SettingsRepository.
func (r *settingsRepositoryImpl) Upsert(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	s.UpdatedAt = time.Now().UTC()

	_, err := r.store.querier(ctx).ExecContext(ctx, `
		INSERT INTO settings (id, default_leave_allocation, sick_leave_allocation, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET default_leave_allocation = excluded.default_leave_allocation,
			sick_leave_allocation = excluded.sick_leave_allocation,
			updated_at = excluded.updated_at`,
		s.DefaultLeaveAllocation, s.SickLeaveAllocation, formatTime(s.UpdatedAt),
	)
	if err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}
