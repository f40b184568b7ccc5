package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/xid"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

// TitleProber est un collaborateur best-effort qui tente de déduire un titre
// lisible depuis la page cible; "" quand il ne sait pas.
type TitleProber interface {
	ProbeTitle(ctx context.Context, url string) string
}

// ChannelService porte la bibliothèque de channels: normalisation
// systématique à la lecture, mutations en read-modify-write complet.
type ChannelService struct {
	repo     ports.ChannelRepository
	settings ports.SettingsRepository
	prober   TitleProber
}

func NewChannelService(repo ports.ChannelRepository, settings ports.SettingsRepository) *ChannelService {
	return &ChannelService{repo: repo, settings: settings}
}

// SetTitleProber branche la détection de titre best-effort (optionnelle).
func (s *ChannelService) SetTitleProber(p TitleProber) { s.prober = p }

// LoadNormalized relit toute la collection, la normalise et la re-persiste.
// C'est le point d'entrée de toutes les opérations: le store peut contenir
// des formes legacy ou des écritures concurrentes.
func (s *ChannelService) LoadNormalized(ctx context.Context) (map[string]domain.Channel, error) {
	raw, err := s.repo.AllRaw(ctx)
	if err != nil {
		return nil, err
	}
	channels := NormalizeChannels(raw)
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// SaveAll re-persiste la collection complète (déjà normalisée par l'appelant).
func (s *ChannelService) SaveAll(ctx context.Context, channels map[string]domain.Channel) error {
	return s.repo.ReplaceAll(ctx, channels)
}

// TouchPlayStats incrémente playCount, horodate lastPlayedAt et mémorise
// l'item comme dernier joué du channel. Appelé exactement une fois par
// démarrage d'item réussi.
func (s *ChannelService) TouchPlayStats(ctx context.Context, name, itemID string, nowMs int64) error {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[name]
	if !ok {
		return nil
	}
	idx := ch.ItemIndex(itemID)
	if idx < 0 {
		return nil
	}
	ch.Items[idx].PlayCount++
	ch.Items[idx].LastPlayedAt = nowMs
	ch.LastPlayedItemID = itemID
	channels[name] = ch
	return s.repo.ReplaceAll(ctx, channels)
}

func (s *ChannelService) Get(ctx context.Context, name string) (domain.Channel, error) {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return domain.Channel{}, err
	}
	ch, ok := channels[name]
	if !ok {
		return domain.Channel{}, ErrNotFound
	}
	return ch, nil
}

func (s *ChannelService) Create(ctx context.Context, name string) (domain.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Channel{}, fmt.Errorf("missing channel name")
	}
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return domain.Channel{}, err
	}
	if _, exists := channels[name]; exists {
		return domain.Channel{}, ErrConflict
	}
	ch := domain.Channel{
		CreatedAt:   nowMillis(),
		ShuffleMode: domain.ShuffleSequential,
		Items:       []domain.Item{},
	}
	channels[name] = ch
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return domain.Channel{}, err
	}
	return ch, nil
}

func (s *ChannelService) Delete(ctx context.Context, name string) error {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	if _, ok := channels[name]; !ok {
		return ErrNotFound
	}
	delete(channels, name)
	return s.repo.ReplaceAll(ctx, channels)
}

// Update remplace le record d'un channel existant (mode, profil, items) en
// repassant par la sanitation.
func (s *ChannelService) Update(ctx context.Context, name string, updated domain.Channel) (domain.Channel, error) {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return domain.Channel{}, err
	}
	current, ok := channels[name]
	if !ok {
		return domain.Channel{}, ErrNotFound
	}

	updated.CreatedAt = current.CreatedAt
	updated.ShuffleMode = domain.NormalizeShuffleMode(string(updated.ShuffleMode))
	items := make([]domain.Item, 0, len(updated.Items))
	for _, it := range updated.Items {
		if clean, sane := SanitizeItem(it); sane {
			items = append(items, clean)
		}
	}
	updated.Items = items
	if updated.LastPlayedItemID != "" {
		if _, found := updated.Item(updated.LastPlayedItemID); !found {
			updated.LastPlayedItemID = ""
		}
	}

	channels[name] = updated
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return domain.Channel{}, err
	}
	return updated, nil
}

// Clone duplique un channel sous "<name> Copy" (puis "Copy 2", …), avec des
// ids et addedAt neufs et les stats de lecture remises à zéro implicitement
// par copie des items existants (les compteurs sont conservés côté original).
func (s *ChannelService) Clone(ctx context.Context, name string) (string, error) {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return "", err
	}
	src, ok := channels[name]
	if !ok {
		return "", ErrNotFound
	}

	baseName := name + " Copy"
	nextName := baseName
	for n := 2; ; n++ {
		if _, taken := channels[nextName]; !taken {
			break
		}
		nextName = fmt.Sprintf("%s %d", baseName, n)
	}

	now := nowMillis()
	clone := domain.Channel{
		CreatedAt:   now,
		ShuffleMode: src.ShuffleMode,
		Profile:     normalizeProfile(src.Profile),
		Items:       make([]domain.Item, 0, len(src.Items)),
	}
	for _, it := range src.Items {
		copied := it
		copied.ID = "item-" + xid.New().String()
		copied.AddedAt = now
		clone.Items = append(clone.Items, copied)
	}
	channels[nextName] = clone
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return "", err
	}
	return nextName, nil
}

// Randomize mélange l'ordre des items (Fisher-Yates). No-op sous 2 items.
func (s *ChannelService) Randomize(ctx context.Context, name string) error {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[name]
	if !ok {
		return ErrNotFound
	}
	if len(ch.Items) < 2 {
		return nil
	}
	rand.Shuffle(len(ch.Items), func(i, j int) {
		ch.Items[i], ch.Items[j] = ch.Items[j], ch.Items[i]
	})
	channels[name] = ch
	return s.repo.ReplaceAll(ctx, channels)
}

// Dedupe supprime les doublons (même IdentityKey) en fusionnant les stats
// dans le survivant: playCount additionné, lastPlayedAt/maxPlays/cooldown au
// max, ccEnabled en OR. La première occurrence garde sa position.
func (s *ChannelService) Dedupe(ctx context.Context, name string) (int, error) {
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return 0, err
	}
	ch, ok := channels[name]
	if !ok {
		return 0, ErrNotFound
	}
	if len(ch.Items) < 2 {
		return 0, nil
	}

	keep := make([]domain.Item, 0, len(ch.Items))
	byKey := make(map[string]int)
	removed := 0
	for _, it := range ch.Items {
		key := it.IdentityKey()
		pos, seen := byKey[key]
		if !seen {
			byKey[key] = len(keep)
			keep = append(keep, it)
			continue
		}
		survivor := &keep[pos]
		survivor.PlayCount += it.PlayCount
		if it.LastPlayedAt > survivor.LastPlayedAt {
			survivor.LastPlayedAt = it.LastPlayedAt
		}
		if it.MaxPlays > survivor.MaxPlays {
			survivor.MaxPlays = it.MaxPlays
		}
		if it.CooldownMinutes > survivor.CooldownMinutes {
			survivor.CooldownMinutes = it.CooldownMinutes
		}
		if boolOf(it.CCEnabled) && !boolOf(survivor.CCEnabled) {
			on := true
			survivor.CCEnabled = &on
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	ch.Items = keep
	if ch.LastPlayedItemID != "" {
		if _, found := ch.Item(ch.LastPlayedItemID); !found {
			ch.LastPlayedItemID = ""
		}
	}
	channels[name] = ch
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return 0, err
	}
	return removed, nil
}

func boolOf(v *bool) bool { return v != nil && *v }

// BatchReport résume un import par lot.
type BatchReport struct {
	Added            int `json:"added"`
	SkippedDuplicate int `json:"skippedDuplicate"`
	SkippedInvalid   int `json:"skippedInvalid"`
}

// BatchAdd ajoute une URL par ligne au channel; les lignes invalides et les
// doublons sont comptés mais n'interrompent rien.
func (s *ChannelService) BatchAdd(ctx context.Context, name, text string) (BatchReport, error) {
	var report BatchReport
	channels, err := s.LoadNormalized(ctx)
	if err != nil {
		return report, err
	}
	ch, ok := channels[name]
	if !ok {
		return report, ErrNotFound
	}

	existing := make(map[string]struct{}, len(ch.Items))
	for _, it := range ch.Items {
		existing[it.IdentityKey()] = struct{}{}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		item, sane := s.buildBatchItem(ctx, line, ch.Profile)
		if !sane {
			report.SkippedInvalid++
			continue
		}
		key := item.IdentityKey()
		if _, dup := existing[key]; dup {
			report.SkippedDuplicate++
			continue
		}
		existing[key] = struct{}{}
		ch.Items = append(ch.Items, item)
		report.Added++
	}

	channels[name] = ch
	if err := s.repo.ReplaceAll(ctx, channels); err != nil {
		return report, err
	}
	return report, nil
}

var (
	netflixWatchPathRe = regexp.MustCompile(`(?i)/watch/\d+`)
	netflixTitlePathRe = regexp.MustCompile(`(?i)/title/\d+`)
)

// buildBatchItem construit un item depuis une URL brute: l'URL est rangée
// dans le champ episode/series selon la forme du path, le titre dérive du
// label plateforme + dernier segment, sauf si la sonde de titre fait mieux.
func (s *ChannelService) buildBatchItem(ctx context.Context, rawURL string, profile *domain.ChannelProfile) (domain.Item, bool) {
	safeURL := SanitizeStreamURL(rawURL)
	if safeURL == "" {
		return domain.Item{}, false
	}
	parsed, err := url.Parse(safeURL)
	if err != nil {
		return domain.Item{}, false
	}
	platform := DetectPlatform(safeURL)
	path := parsed.Path
	leaf := "item"
	if parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' }); len(parts) > 0 {
		leaf = parts[len(parts)-1]
	}

	var hostLabel string
	switch platform {
	case domain.PlatformNetflix:
		hostLabel = "Netflix"
	case domain.PlatformHulu:
		hostLabel = "Hulu"
	default:
		hostLabel = "HBO Max"
	}

	title := hostLabel + " " + leaf
	if s.prober != nil {
		if probed := s.prober.ProbeTitle(ctx, safeURL); probed != "" {
			title = probed
		}
	}

	var cc *bool
	if profile != nil && profile.CCEnabledDefault != nil {
		v := *profile.CCEnabledDefault
		cc = &v
	} else if s.settings != nil {
		if settings, err := s.settings.Get(ctx); err == nil {
			v := settings.CaptionsEnabledDefault
			cc = &v
		}
	}

	item := domain.Item{
		ID:        "item-" + xid.New().String(),
		Title:     title,
		Platform:  platform,
		SourceURL: safeURL,
		CCEnabled: cc,
		AddedAt:   nowMillis(),
	}

	lowerPath := strings.ToLower(path)
	switch platform {
	case domain.PlatformNetflix:
		if netflixWatchPathRe.MatchString(path) {
			item.EpisodeURL = safeURL
		}
		if netflixTitlePathRe.MatchString(path) {
			item.SeriesURL = safeURL
		}
	case domain.PlatformHulu:
		if strings.Contains(lowerPath, "/watch/") {
			item.EpisodeURL = safeURL
		}
		if strings.Contains(lowerPath, "/series/") {
			item.SeriesURL = safeURL
		}
	case domain.PlatformMax:
		if strings.Contains(lowerPath, "/video/watch/") || strings.Contains(lowerPath, "/watch/") {
			item.EpisodeURL = safeURL
		}
		if strings.Contains(lowerPath, "/series/") || strings.Contains(lowerPath, "/show/") {
			item.SeriesURL = safeURL
		}
	}

	return SanitizeItem(item)
}
