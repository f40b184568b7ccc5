package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// Coordinator est le coordinateur de lecture vu depuis un agent: à qui
// demander si cet onglet doit être piloté, et à qui signaler la fin
// d'épisode.
type Coordinator interface {
	ShouldAutomate(ctx context.Context) (app.AutomationState, error)
	EpisodeEnded(ctx context.Context) error
}

const (
	syncAttemptCap     = 60
	maximizeAttemptCap = 60
	restartAttemptCap  = 35
	playClickWindow    = 15 * time.Second
	restartThreshold   = 0.15
	endedThreshold     = 1.0

	// DefaultTickInterval est la cadence de réconciliation recommandée.
	DefaultTickInterval = 500 * time.Millisecond
)

// syncState suit la réconciliation captions+maximize d'un média donné.
// Le token (url|captions|maximize) garantit qu'un Tick répété ne refait pas
// un travail déjà acquis.
type syncState struct {
	token            string
	inFlight         bool
	attempts         int
	uiSynced         bool
	maximizeAttempts int
}

// mediaState porte les one-shots liés à l'élément média courant; un token
// média neuf (nouvelle source) les réarme.
type mediaState struct {
	token           string
	endedSent       bool
	restartDone     bool
	restartAttempts int
}

// Agent est la machine à états UI-sync d'une page: interroger le
// coordinateur, appliquer captions et maximisation, détecter la fin
// d'épisode. Tout l'état vit ici, cycle de vie explicite: New → Tick répété
// → Deactivate. Chaque action est idempotente ou gardée, un Tick de plus ne
// double-clique jamais.
type Agent struct {
	logger  zerolog.Logger
	driver  PageDriver
	adapter Adapter
	coord   Coordinator

	enabled  bool
	captions domain.CaptionSettings
	maximize bool

	lastHandledURL string
	playClicked    bool
	playDeadline   time.Time

	sync  syncState
	media mediaState

	now func() time.Time
}

func New(logger zerolog.Logger, driver PageDriver, adapter Adapter, coord Coordinator) *Agent {
	return &Agent{
		logger:  logger,
		driver:  driver,
		adapter: adapter,
		coord:   coord,
		now:     time.Now,
	}
}

// Run réconcilie à cadence fixe jusqu'à annulation du contexte.
func (a *Agent) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("agent stopped")
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick est l'unique pas de réconciliation: détection de route, clic play,
// sync captions/maximize, détection de fin. Sans réponse du coordinateur ou
// si l'automatisation n'est pas pour cet onglet, l'agent reste passif.
func (a *Agent) Tick(ctx context.Context) {
	state, err := a.coord.ShouldAutomate(ctx)
	if err != nil {
		a.enabled = false
		return
	}
	a.enabled = state.Enabled
	a.captions = state.Captions
	a.maximize = state.Maximize
	if !a.enabled {
		return
	}

	url := a.driver.Location()
	if url != a.lastHandledURL {
		a.lastHandledURL = url
		a.playClicked = false
		a.playDeadline = a.now().Add(playClickWindow)
	}

	switch a.adapter.DetectPageKind(url) {
	case PageWatch:
		a.reconcileWatch(ctx)
	case PageBrowse:
		a.tryClickPlay()
	}
}

// Deactivate traite le signal advisory de désactivation: cesser de piloter
// et mettre le média en pause. Aucun acquittement attendu.
func (a *Agent) Deactivate() {
	a.enabled = false
	a.playClicked = false
	a.sync = syncState{}
	if media, ok := a.driver.Media(); ok {
		media.Pause()
	}
}

func (a *Agent) reconcileWatch(ctx context.Context) {
	media, ok := a.driver.Media()
	if !ok {
		return
	}

	if token := media.Token(); token != a.media.token {
		a.media = mediaState{token: token}
		a.sync = syncState{}
	}

	a.restartFromBeginning(media)
	a.syncCaptionsAndMaximize(media)
	a.detectEpisodeEnd(ctx, media)
}

// restartFromBeginning force le retour au début: certaines plateformes
// reprennent en cours d'épisode par défaut. Borné, one-shot par média.
func (a *Agent) restartFromBeginning(media Media) {
	if a.media.restartDone {
		return
	}
	a.media.restartAttempts++
	if a.adapter.StartOverLocator != "" {
		if el, ok := a.driver.Find(a.adapter.StartOverLocator); ok && el.Visible() {
			el.Click()
		}
	}
	if media.CurrentTime() > restartThreshold {
		media.SeekTo(0)
	}
	media.Play()
	if media.CurrentTime() <= restartThreshold || a.media.restartAttempts >= restartAttemptCap {
		a.media.restartDone = true
	}
}

func (a *Agent) captionKey() string {
	if !a.captions.Enabled {
		return "off"
	}
	return "on:" + strings.ToLower(a.captions.Language)
}

func (a *Agent) syncToken() string {
	max := "0"
	if a.maximize {
		max = "1"
	}
	return a.driver.Location() + "|" + a.captionKey() + "|" + max
}

// syncCaptionsAndMaximize est la double vérification état + UI: l'état natif
// des pistes ne suffit pas, certaines plateformes re-rendent la liste
// indépendamment de ce que leur UI affiche. On retente jusqu'à ce que les
// deux couches concordent, plafonné.
func (a *Agent) syncCaptionsAndMaximize(media Media) {
	token := a.syncToken()
	if token != a.sync.token {
		a.sync = syncState{token: token, inFlight: true}
	}
	if !a.sync.inFlight {
		return
	}

	a.sync.attempts++
	a.applyCaptionTracks(media)
	if a.captionsAppliedOnTracks(media) && !a.sync.uiSynced {
		a.sync.uiSynced = true
	} else if !a.sync.uiSynced || !a.captionsAppliedOnTracks(media) {
		a.applyCaptionsViaUI()
		a.applyCaptionTracks(media)
	}
	a.applyMaximizeViaUI()

	captionsDone := (a.captionsAppliedOnTracks(media) || a.captionsAppliedInUI()) && a.sync.uiSynced
	maximizeDone := !a.maximize || a.driver.Fullscreen()
	if (captionsDone && maximizeDone) || a.sync.attempts >= syncAttemptCap {
		a.sync.inFlight = false
	}
}

// applyCaptionTracks pilote directement les pistes natives: langue exacte,
// puis préfixe de langue, puis piste "captions", puis première piste.
func (a *Agent) applyCaptionTracks(media Media) {
	tracks := media.Tracks()
	if len(tracks) == 0 {
		return
	}

	if !a.captions.Enabled {
		for _, track := range tracks {
			track.SetMode(TrackDisabled)
		}
		return
	}

	desired := strings.ToLower(a.captions.Language)
	prefix := desired
	if i := strings.IndexByte(prefix, '-'); i > 0 {
		prefix = prefix[:i]
	}

	var chosen TextTrack
	for _, track := range tracks {
		if strings.ToLower(track.Language()) == desired {
			chosen = track
			break
		}
	}
	if chosen == nil && prefix != "" {
		for _, track := range tracks {
			if strings.HasPrefix(strings.ToLower(track.Language()), prefix) {
				chosen = track
				break
			}
		}
	}
	if chosen == nil {
		for _, track := range tracks {
			if strings.Contains(strings.ToLower(track.Kind()), "capt") {
				chosen = track
				break
			}
		}
	}
	if chosen == nil {
		chosen = tracks[0]
	}

	for _, track := range tracks {
		if track == chosen {
			track.SetMode(TrackShowing)
		} else {
			track.SetMode(TrackDisabled)
		}
	}
}

func (a *Agent) captionsAppliedOnTracks(media Media) bool {
	tracks := media.Tracks()
	if len(tracks) == 0 {
		return false
	}
	if !a.captions.Enabled {
		for _, track := range tracks {
			if track.Mode() == TrackShowing {
				return false
			}
		}
		return true
	}
	for _, track := range tracks {
		if track.Mode() == TrackShowing {
			return true
		}
	}
	return false
}

func (a *Agent) captionsAppliedInUI() bool {
	options := a.driver.FindAll(a.adapter.CaptionOptions)
	if len(options) == 0 {
		return false
	}
	var selected Element
	for _, option := range options {
		if option.Selected() {
			selected = option
			break
		}
	}
	if selected == nil {
		return false
	}
	if !a.captions.Enabled {
		return a.adapter.OptionIsOff(selected)
	}
	return !a.adapter.OptionIsOff(selected)
}

// applyCaptionsViaUI est le fallback quand l'état natif ne tient pas: ouvrir
// le menu de la plateforme, cliquer l'option voulue, refermer.
func (a *Agent) applyCaptionsViaUI() {
	if a.adapter.RequiresVisibility && !a.driver.Visible() {
		return
	}
	a.driver.NudgeControls()

	if a.adapter.CaptionMenuOpen != "" {
		if menu, ok := a.driver.Find(a.adapter.CaptionMenuOpen); ok && menu.Visible() {
			menu.Click()
		}
	}

	options := a.driver.FindAll(a.adapter.CaptionOptions)
	if len(options) == 0 {
		return
	}

	var target Element
	if !a.captions.Enabled {
		for _, option := range options {
			if a.adapter.OptionIsOff(option) {
				target = option
				break
			}
		}
	} else {
		for _, option := range options {
			if a.adapter.OptionMatchesLanguage(option, a.captions.Language) {
				target = option
				break
			}
		}
		if target == nil {
			for _, option := range options {
				if !a.adapter.OptionIsOff(option) {
					target = option
					break
				}
			}
		}
	}
	if target == nil {
		target = options[0]
	}

	if !target.Selected() {
		target.Click()
	}
	a.sync.uiSynced = true

	if a.adapter.CaptionMenuClose != "" {
		if closeEl, ok := a.driver.Find(a.adapter.CaptionMenuClose); ok && closeEl.Visible() {
			closeEl.Click()
		}
	}
}

func (a *Agent) applyMaximizeViaUI() {
	if !a.maximize || a.driver.Fullscreen() {
		return
	}
	if a.adapter.RequiresVisibility && !a.driver.Visible() {
		return
	}
	if a.sync.maximizeAttempts >= maximizeAttemptCap {
		return
	}
	a.sync.maximizeAttempts++
	a.driver.NudgeControls()
	if button, ok := a.driver.Find(a.adapter.FullscreenLocator); ok && button.Visible() {
		button.Click()
	}
}

// detectEpisodeEnd envoie exactement une notification par segment terminé:
// l'event "ended" natif, ou moins d'une seconde restante pour couvrir les
// plateformes qui bouclent ou préemptent l'event.
func (a *Agent) detectEpisodeEnd(ctx context.Context, media Media) {
	if a.media.endedSent {
		return
	}
	duration := media.Duration()
	remaining := duration - media.CurrentTime()
	if !media.Ended() && !(duration > 0 && remaining <= endedThreshold) {
		return
	}
	a.media.endedSent = true
	if err := a.coord.EpisodeEnded(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("episode end notification failed")
	}
}

// tryClickPlay clique le bouton play/resume d'une page browse, une seule
// fois par route, dans une fenêtre bornée.
func (a *Agent) tryClickPlay() {
	if a.playClicked || a.now().After(a.playDeadline) {
		return
	}
	for _, locator := range a.adapter.PlayLocators {
		if el, ok := a.driver.Find(locator); ok && el.Visible() {
			el.Click()
			a.playClicked = true
			return
		}
	}
	if a.adapter.GenericPlayCandidates == "" {
		return
	}
	for _, el := range a.driver.FindAll(a.adapter.GenericPlayCandidates) {
		if !el.Visible() {
			continue
		}
		if PlayLabelLooksPlayable(el.Label()) {
			el.Click()
			a.playClicked = true
			return
		}
	}
}
