package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
)

type SettingsServiceImpl struct {
	settingsRepo settings.SettingsRepository
	defaults     settings.Defaults
}

func NewSettingsService(settingsRepo settings.SettingsRepository, defaults settings.Defaults) *SettingsServiceImpl {
	return &SettingsServiceImpl{
		settingsRepo: settingsRepo,
		defaults:     defaults,
	}
}

// GetSettings implements settings.SettingsService.
func (s *SettingsServiceImpl) GetSettings(ctx context.Context) (settings.Settings, error) {
	stored, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			return settings.Settings{
				DefaultLeaveAllocation: s.defaults.DefaultLeaveAllocation,
				SickLeaveAllocation:    s.defaults.SickLeaveAllocation,
			}, nil
		}
		return settings.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return stored, nil
}

// UpdateSettings implements settings.SettingsService. Omitted fields keep their current value.
// Stored balances are not touched; a reset applies a new allocation.
func (s *SettingsServiceImpl) UpdateSettings(ctx context.Context, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	if err := req.Validate(); err != nil {
		return settings.Settings{}, err
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return settings.Settings{}, err
	}

	if req.DefaultLeaveAllocation != nil {
		current.DefaultLeaveAllocation = *req.DefaultLeaveAllocation
	}
	if req.SickLeaveAllocation != nil {
		current.SickLeaveAllocation = *req.SickLeaveAllocation
	}

	saved, err := s.settingsRepo.Upsert(ctx, current)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Info("Leave settings updated",
		"default_leave_allocation", saved.DefaultLeaveAllocation,
		"sick_leave_allocation", saved.SickLeaveAllocation,
	)
	return saved, nil
}
