package app

import (
	"context"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

const backupSchemaVersion = 2

// Backup est le format d'export/import: les deux records synchronisés dans
// un seul document JSON.
type Backup struct {
	SchemaVersion  int                       `json:"schemaVersion"`
	ExportedAt     int64                     `json:"exportedAt"`
	Channels       map[string]domain.Channel `json:"channels"`
	StreamSettings domain.Settings           `json:"streamSettings"`
}

// Export capture la bibliothèque normalisée et les settings.
func (s *ChannelService) Export(ctx context.Context) (Backup, error) {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return Backup{}, err
	}
	settings := domain.DefaultSettings()
	if s.settings != nil {
		if got, err := s.settings.Get(ctx); err == nil {
			settings = domain.NormalizeSettings(got)
		}
	}
	return Backup{
		SchemaVersion:  backupSchemaVersion,
		ExportedAt:     nowMillis(),
		Channels:       channels,
		StreamSettings: settings,
	}, nil
}

// Import remplace les deux records en bloc, après normalisation. Le contenu
// précédent est perdu, c'est le contrat.
func (s *ChannelService) Import(ctx context.Context, backup Backup) (int, error) {
	channels := NormalizeChannels(RawChannels(backup.Channels))
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return 0, err
	}
	if s.settings != nil {
		if _, err := s.settings.Put(ctx, domain.NormalizeSettings(backup.StreamSettings)); err != nil {
			return 0, err
		}
	}
	return len(channels), nil
}
