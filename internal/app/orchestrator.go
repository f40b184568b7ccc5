package app

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

// Topics publiés sur le bus.
const (
	TopicPlaybackStarted = "playback.started"
	TopicPlaybackStopped = "playback.stopped"
)

// AutomationState est la réponse à un agent qui demande s'il doit piloter
// son onglet.
type AutomationState struct {
	Enabled  bool                   `json:"enabled"`
	Captions domain.CaptionSettings `json:"captionSettings"`
	Maximize bool                   `json:"maximizeEnabled"`
}

// PlaybackService est le coordinateur central: seul propriétaire de "ce qui
// joue", il résout l'item suivant, navigue les onglets et persiste l'état.
// Les requêtes sont traitées une par une conceptuellement; deux mutations
// quasi simultanées sur le même channel peuvent se croiser (last-writer-wins
// assumé, données non critiques).
type PlaybackService struct {
	logger   zerolog.Logger
	channels *ChannelService
	settings ports.SettingsRepository
	state    ports.PlaybackStateRepository
	tabs     ports.TabGateway
	bus      ports.EventBus

	// AdvanceDelay retarde le playNext déclenché par episodeEnded, pour ne
	// pas courser l'auto-transition "up next" de la plateforme.
	AdvanceDelay time.Duration

	// now et intn sont injectables en test.
	now  func() time.Time
	intn func(int) int

	mu             sync.Mutex
	advancePending bool
}

func NewPlaybackService(logger zerolog.Logger, channels *ChannelService, settings ports.SettingsRepository, state ports.PlaybackStateRepository, tabs ports.TabGateway, bus ports.EventBus) *PlaybackService {
	return &PlaybackService{
		logger:       logger,
		channels:     channels,
		settings:     settings,
		state:        state,
		tabs:         tabs,
		bus:          bus,
		AdvanceDelay: 1500 * time.Millisecond,
		now:          time.Now,
	}
}

func (s *PlaybackService) nowMillis() int64 { return s.now().UnixMilli() }

// State renvoie l'état de lecture courant enrichi des booléens dérivés.
func (s *PlaybackService) State(ctx context.Context) (domain.PlaybackView, error) {
	state, err := s.state.Get(ctx)
	if err != nil {
		return domain.DefaultPlaybackState().View(), err
	}
	return state.View(), nil
}

// ShouldAutomate répond à l'agent d'un onglet: enabled seulement si une
// lecture tourne et que l'onglet demandeur est bien l'onglet de lecture.
func (s *PlaybackService) ShouldAutomate(ctx context.Context, tabID int64) AutomationState {
	out := AutomationState{Captions: domain.CaptionSettings{Language: "en"}}
	state, err := s.state.Get(ctx)
	if err != nil {
		return out
	}
	state = state.Normalize()
	out.Captions = state.Captions
	out.Maximize = state.Maximize
	out.Enabled = state.Running && tabID != 0 && tabID == state.TabID
	return out
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// PlayChannel démarre un channel: item explicite, sinon index numérique,
// sinon dernier item mémorisé, sinon premier. Channel vide ou inconnu →
// l'état de lecture est remis à zéro, sans erreur.
func (s *PlaybackService) PlayChannel(ctx context.Context, channelName, startItemID string) error {
	channels, err := s.channels.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[channelName]
	if !ok || len(ch.Items) == 0 {
		return s.state.Put(ctx, domain.DefaultPlaybackState())
	}

	var item *domain.Item
	if startItemID != "" {
		if found, ok := ch.Item(startItemID); ok {
			item = &found
		} else if digitsRe.MatchString(startItemID) {
			// Fallback: un id purement numérique est traité comme un index.
			idx := 0
			for _, c := range startItemID {
				idx = idx*10 + int(c-'0')
			}
			if idx >= 0 && idx < len(ch.Items) {
				item = &ch.Items[idx]
			}
		}
	}
	if item == nil && ch.LastPlayedItemID != "" {
		if found, ok := ch.Item(ch.LastPlayedItemID); ok {
			item = &found
		}
	}
	if item == nil {
		item = &ch.Items[0]
	}

	ch.LastPlayedItemID = item.ID
	channels[channelName] = ch
	if err := s.channels.SaveAll(ctx, channels); err != nil {
		return err
	}
	_, err = s.playItem(ctx, channelName, *item, domain.DefaultPlaybackState(), domain.TransitionReset, ch.Profile)
	return err
}

// PlayItemNow joue un item précis. Si le channel est déjà celui en cours,
// l'historique est conservé (append), sinon on repart de zéro.
func (s *PlaybackService) PlayItemNow(ctx context.Context, channelName, itemID string) error {
	channels, err := s.channels.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[channelName]
	if !ok || len(ch.Items) == 0 {
		return nil
	}
	item, ok := ch.Item(itemID)
	if !ok {
		return nil
	}

	state, err := s.state.Get(ctx)
	if err != nil {
		return err
	}
	transition := domain.TransitionReset
	base := domain.DefaultPlaybackState()
	if state.ChannelName == channelName {
		transition = domain.TransitionAppend
		base = state
	}
	_, err = s.playItem(ctx, channelName, item, base, transition, ch.Profile)
	return err
}

// PlayNext avance la lecture. L'historique forward, s'il existe et est
// demandé, prime sur la politique de rotation.
func (s *PlaybackService) PlayNext(ctx context.Context, channelName string, preferForwardHistory bool) error {
	channels, err := s.channels.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[channelName]
	if !ok || len(ch.Items) == 0 {
		return s.state.Put(ctx, domain.DefaultPlaybackState())
	}

	state, err := s.state.Get(ctx)
	if err != nil {
		return err
	}
	state = state.Normalize()

	if preferForwardHistory && state.ChannelName == channelName && state.HistoryIndex < len(state.History)-1 {
		forwardID := state.History[state.HistoryIndex+1]
		if item, ok := ch.Item(forwardID); ok {
			_, err = s.playItem(ctx, channelName, item, state, domain.TransitionForward, ch.Profile)
			return err
		}
	}

	candidates := EligibleItems(ch.Items, s.nowMillis())
	currentIndex := -1
	for i, it := range candidates {
		if it.ID == state.LastItemID {
			currentIndex = i
			break
		}
	}
	nextIndex := PickNextIndex(candidates, currentIndex, ch.ShuffleMode, s.intn)
	if nextIndex < 0 || nextIndex >= len(candidates) {
		return nil
	}
	nextItem := candidates[nextIndex]

	transition := domain.TransitionReset
	base := domain.DefaultPlaybackState()
	if state.ChannelName == channelName {
		transition = domain.TransitionAppend
		base = state
	}
	_, err = s.playItem(ctx, channelName, nextItem, base, transition, ch.Profile)
	return err
}

// PlayPrevious rejoue l'entrée précédente de l'historique. No-op si rien ne
// tourne ou si on est déjà au début.
func (s *PlaybackService) PlayPrevious(ctx context.Context) error {
	state, err := s.state.Get(ctx)
	if err != nil {
		return err
	}
	state = state.Normalize()
	if !state.Running || state.ChannelName == "" || state.HistoryIndex <= 0 {
		return nil
	}

	channels, err := s.channels.LoadNormalized(ctx)
	if err != nil {
		return err
	}
	ch, ok := channels[state.ChannelName]
	if !ok || len(ch.Items) == 0 {
		return nil
	}
	prevID := state.History[state.HistoryIndex-1]
	item, ok := ch.Item(prevID)
	if !ok {
		return nil
	}
	_, err = s.playItem(ctx, state.ChannelName, item, state, domain.TransitionBack, ch.Profile)
	return err
}

// Skip force le passage à l'item suivant du channel en cours.
// Renvoie false si rien ne tourne.
func (s *PlaybackService) Skip(ctx context.Context) (bool, error) {
	state, err := s.state.Get(ctx)
	if err != nil {
		return false, err
	}
	state = state.Normalize()
	if !state.Running || state.ChannelName == "" {
		return false, nil
	}
	return true, s.PlayNext(ctx, state.ChannelName, true)
}

// Stop prévient l'onglet de lecture de se désactiver puis remet l'état à zéro.
func (s *PlaybackService) Stop(ctx context.Context) error {
	state, err := s.state.Get(ctx)
	if err != nil {
		return err
	}
	if tabID := state.Normalize().TabID; tabID != 0 {
		s.tabs.Send(ctx, tabID, ports.TabMessage{Type: ports.TabMessageDeactivate})
	}
	if err := s.state.Put(ctx, domain.DefaultPlaybackState()); err != nil {
		return err
	}
	s.publish(TopicPlaybackStopped, domain.DefaultPlaybackState().View())
	return nil
}

// EpisodeEnded note la fin d'épisode signalée par un agent et programme
// l'avance après AdvanceDelay, pour laisser passer l'auto-transition de la
// plateforme. Un seul avancement en vol à la fois.
func (s *PlaybackService) EpisodeEnded(ctx context.Context) error {
	state, err := s.state.Get(ctx)
	if err != nil {
		return err
	}
	state = state.Normalize()
	if !state.Running || state.ChannelName == "" {
		return nil
	}

	s.mu.Lock()
	if s.advancePending {
		s.mu.Unlock()
		return nil
	}
	s.advancePending = true
	s.mu.Unlock()

	channelName := state.ChannelName
	time.AfterFunc(s.AdvanceDelay, func() {
		defer func() {
			s.mu.Lock()
			s.advancePending = false
			s.mu.Unlock()
		}()
		if err := s.PlayNext(context.Background(), channelName, true); err != nil {
			s.logger.Warn().Err(err).Str("channel", channelName).Msg("delayed advance failed")
		}
	})
	return nil
}

// playItem ouvre l'item dans un onglet, applique la transition d'historique,
// persiste l'état et met à jour les stats de lecture. Renvoie false si aucune
// URL jouable n'a pu être résolue.
func (s *PlaybackService) playItem(ctx context.Context, channelName string, item domain.Item, base domain.PlaybackState, transition domain.Transition, profile *domain.ChannelProfile) (bool, error) {
	previousTabID := base.Normalize().TabID
	openedTabID := s.openItem(ctx, item, previousTabID)
	if openedTabID == 0 {
		return false, nil
	}

	settings := domain.DefaultSettings()
	if s.settings != nil {
		if got, err := s.settings.Get(ctx); err == nil {
			settings = domain.NormalizeSettings(got)
		}
	}

	ccEnabled := settings.CaptionsEnabledDefault
	if profile != nil && profile.CCEnabledDefault != nil {
		ccEnabled = *profile.CCEnabledDefault
	}
	if item.CCEnabled != nil {
		ccEnabled = *item.CCEnabled
	}
	language := settings.CaptionsLanguage
	if profile != nil && profile.CaptionsLanguage != "" {
		language = profile.CaptionsLanguage
	}
	if language == "" {
		language = "en"
	}
	maximize := settings.MaximizePlayer
	if profile != nil && profile.MaximizePlayer != nil {
		maximize = *profile.MaximizePlayer
	}

	next := base.Apply(item.ID, transition)
	next.Running = true
	next.ChannelName = channelName
	next.StartedAt = s.nowMillis()
	next.TabID = openedTabID
	next.Captions = domain.CaptionSettings{Enabled: ccEnabled, Language: language}
	next.Maximize = maximize
	if err := s.state.Put(ctx, next); err != nil {
		return false, err
	}

	if previousTabID != 0 && previousTabID != openedTabID {
		s.tabs.Send(ctx, previousTabID, ports.TabMessage{Type: ports.TabMessageDeactivate})
	}

	if err := s.channels.TouchPlayStats(ctx, channelName, item.ID, s.nowMillis()); err != nil {
		s.logger.Warn().Err(err).Str("channel", channelName).Str("item", item.ID).Msg("play stats update failed")
	}

	s.logger.Info().Str("channel", channelName).Str("item", item.ID).Int64("tab", openedTabID).Msg("item started")
	s.publish(TopicPlaybackStarted, next.View())
	return true, nil
}

// openItem choisit l'onglet cible: l'onglet de lecture existant s'il est
// encore pilotable, sinon l'onglet actif, sinon n'importe quel onglet
// pilotable, sinon un onglet neuf. Renvoie 0 si l'item n'a pas d'URL jouable.
func (s *PlaybackService) openItem(ctx context.Context, item domain.Item, preferredTabID int64) int64 {
	url := SanitizeStreamURL(PlayableURL(item))
	if url == "" {
		return 0
	}

	if preferredTabID != 0 {
		if tab, ok := s.tabs.Get(ctx, preferredTabID); ok && tab.Usable() {
			if updated, err := s.tabs.Navigate(ctx, tab.ID, url); err == nil {
				return updated.ID
			}
		}
	}
	if tab, ok := s.tabs.Active(ctx); ok && tab.Usable() {
		if updated, err := s.tabs.Navigate(ctx, tab.ID, url); err == nil {
			return updated.ID
		}
	}
	for _, tab := range s.tabs.List(ctx) {
		if !tab.Usable() {
			continue
		}
		if updated, err := s.tabs.Navigate(ctx, tab.ID, url); err == nil {
			return updated.ID
		}
	}
	created, err := s.tabs.Create(ctx, url)
	if err != nil {
		return 0
	}
	return created.ID
}

func (s *PlaybackService) publish(topic string, view domain.PlaybackView) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}
