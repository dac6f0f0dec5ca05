package settings

import "context"

type SettingsRepository interface {
	// Get returns ErrSettingsNotFound when the singleton row is missing.
	Get(ctx context.Context) (Settings, error)
	Upsert(ctx context.Context, s Settings) (Settings, error)
}
