package app

import (
	"encoding/json"
	"time"

	"github.com/rs/xid"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// legacyItem est l'ancienne forme plate {title, url} persistée par les
// premières versions. Un array legacy est promu en Channel complet.
type legacyItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	SeriesURL string `json:"seriesUrl"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// SanitizeItem passe les trois URLs au filtre, recalcule la plateforme et
// laisse tomber l'item si aucune URL ne survit.
func SanitizeItem(item domain.Item) (domain.Item, bool) {
	item.SeriesURL = SanitizeStreamURL(item.SeriesURL)
	item.EpisodeURL = SanitizeStreamURL(item.EpisodeURL)
	item.SourceURL = SanitizeStreamURL(item.SourceURL)

	fallback := item.SeriesURL
	if fallback == "" {
		fallback = item.EpisodeURL
	}
	if fallback == "" {
		fallback = item.SourceURL
	}
	if fallback == "" {
		return domain.Item{}, false
	}

	item.Type = "episode"
	item.Platform = DetectPlatform(fallback)
	if item.PlayCount < 0 {
		item.PlayCount = 0
	}
	if item.LastPlayedAt < 0 {
		item.LastPlayedAt = 0
	}
	if item.MaxPlays < 0 {
		item.MaxPlays = 0
	}
	if item.CooldownMinutes < 0 {
		item.CooldownMinutes = 0
	}
	return item, true
}

func normalizeProfile(p *domain.ChannelProfile) *domain.ChannelProfile {
	if p == nil {
		return nil
	}
	return &domain.ChannelProfile{
		CCEnabledDefault: p.CCEnabledDefault,
		CaptionsLanguage: p.CaptionsLanguage,
		MaximizePlayer:   p.MaximizePlayer,
	}
}

// NormalizeChannels canonicalise la collection persistée quelle que soit sa
// version de schéma. Idempotent: renormaliser une collection déjà normale
// ne change rien.
func NormalizeChannels(raw map[string]json.RawMessage) map[string]domain.Channel {
	normalized := make(map[string]domain.Channel, len(raw))
	for name, value := range raw {
		var legacy []legacyItem
		if err := json.Unmarshal(value, &legacy); err == nil {
			normalized[name] = upgradeLegacyChannel(legacy)
			continue
		}

		var ch domain.Channel
		if err := json.Unmarshal(value, &ch); err != nil {
			continue
		}
		if ch.CreatedAt == 0 {
			ch.CreatedAt = nowMillis()
		}
		ch.ShuffleMode = domain.NormalizeShuffleMode(string(ch.ShuffleMode))
		ch.Profile = normalizeProfile(ch.Profile)

		items := make([]domain.Item, 0, len(ch.Items))
		for _, it := range ch.Items {
			if clean, ok := SanitizeItem(it); ok {
				items = append(items, clean)
			}
		}
		ch.Items = items

		// Un lastPlayedItemId orphelin est effacé.
		if ch.LastPlayedItemID != "" {
			if _, ok := ch.Item(ch.LastPlayedItemID); !ok {
				ch.LastPlayedItemID = ""
			}
		}
		normalized[name] = ch
	}
	return normalized
}

func upgradeLegacyChannel(legacy []legacyItem) domain.Channel {
	now := nowMillis()
	ch := domain.Channel{
		CreatedAt:   now,
		ShuffleMode: domain.ShuffleSequential,
		Items:       make([]domain.Item, 0, len(legacy)),
	}
	for _, entry := range legacy {
		title := entry.Title
		if title == "" {
			title = "Untitled"
		}
		series := entry.SeriesURL
		if series == "" {
			series = entry.URL
		}
		source := entry.URL
		if source == "" {
			source = entry.SeriesURL
		}
		off := false
		item, ok := SanitizeItem(domain.Item{
			ID:        "legacy-" + xid.New().String(),
			Title:     title,
			SeriesURL: series,
			SourceURL: source,
			CCEnabled: &off,
			AddedAt:   now,
		})
		if !ok {
			continue
		}
		ch.Items = append(ch.Items, item)
	}
	return ch
}

// RawChannels re-sérialise une collection normalisée dans la forme AllRaw,
// pratique pour tester l'idempotence et pour les imports.
func RawChannels(channels map[string]domain.Channel) map[string]json.RawMessage {
	raw := make(map[string]json.RawMessage, len(channels))
	for name, ch := range channels {
		b, err := json.Marshal(ch)
		if err != nil {
			continue
		}
		raw[name] = b
	}
	return raw
}
