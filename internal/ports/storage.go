package ports

import (
	"context"
	"encoding/json"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// ChannelRepository est le store synchronisé de la bibliothèque de channels,
// clé = nom du channel. AllRaw renvoie les valeurs telles que persistées
// (forme courante ou legacy) pour laisser la normalisation à l'app; toute
// mutation repasse par ReplaceAll avec la collection complète normalisée
// (read-modify-write, pas de patch partiel).
type ChannelRepository interface {
	AllRaw(ctx context.Context) (map[string]json.RawMessage, error)
	ReplaceAll(ctx context.Context, channels map[string]domain.Channel) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Put(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

// PlaybackStateRepository est le store local de l'état de lecture.
// Éphémère par design: rien ne doit survivre à un redémarrage.
type PlaybackStateRepository interface {
	Get(ctx context.Context) (domain.PlaybackState, error)
	Put(ctx context.Context, state domain.PlaybackState) error
}

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
