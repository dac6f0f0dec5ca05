package settings

import "context"

type SettingsService interface {
	// GetSettings falls back to the configured defaults when nothing is stored.
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (Settings, error)
}
