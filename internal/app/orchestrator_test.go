package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

type memStateRepo struct {
	mu    sync.Mutex
	state domain.PlaybackState
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{state: domain.DefaultPlaybackState()}
}

func (r *memStateRepo) Get(ctx context.Context) (domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *memStateRepo) Put(ctx context.Context, state domain.PlaybackState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state.Normalize()
	return nil
}

// fakeTabs simule la passerelle onglets: création séquentielle d'ids,
// journal des navigations et des messages.
type fakeTabs struct {
	mu        sync.Mutex
	tabs      map[int64]ports.Tab
	nextID    int64
	created   int
	navigated []string
	sent      map[int64][]ports.TabMessage
}

func newFakeTabs() *fakeTabs {
	return &fakeTabs{tabs: map[int64]ports.Tab{}, nextID: 1, sent: map[int64][]ports.TabMessage{}}
}

func (f *fakeTabs) Get(ctx context.Context, id int64) (ports.Tab, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab, ok := f.tabs[id]
	return tab, ok
}

func (f *fakeTabs) Active(ctx context.Context) (ports.Tab, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tab := range f.tabs {
		if tab.Active {
			return tab, true
		}
	}
	return ports.Tab{}, false
}

func (f *fakeTabs) List(ctx context.Context) []ports.Tab {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.Tab, 0, len(f.tabs))
	for _, tab := range f.tabs {
		out = append(out, tab)
	}
	return out
}

func (f *fakeTabs) Navigate(ctx context.Context, id int64, url string) (ports.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab := f.tabs[id]
	tab.ID = id
	tab.URL = url
	tab.Active = true
	f.tabs[id] = tab
	f.navigated = append(f.navigated, url)
	return tab, nil
}

func (f *fakeTabs) Create(ctx context.Context, url string) (ports.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab := ports.Tab{ID: f.nextID, URL: url, Active: true}
	f.nextID++
	f.created++
	f.tabs[tab.ID] = tab
	f.navigated = append(f.navigated, url)
	return tab, nil
}

func (f *fakeTabs) Send(ctx context.Context, id int64, msg ports.TabMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[id] = append(f.sent[id], msg)
}

func (f *fakeTabs) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func (f *fakeTabs) sentTo(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[id])
}

type playbackFixture struct {
	svc   *PlaybackService
	repo  *memChannelRepo
	state *memStateRepo
	tabs  *fakeTabs
}

func newPlaybackFixture(t *testing.T, channels map[string]domain.Channel) *playbackFixture {
	t.Helper()
	repo := newMemChannelRepo()
	for name, ch := range channels {
		repo.seed(t, name, ch)
	}
	settings := &memSettingsRepo{settings: domain.DefaultSettings()}
	state := newMemStateRepo()
	tabs := newFakeTabs()
	chSvc := NewChannelService(repo, settings)
	svc := NewPlaybackService(zerolog.Nop(), chSvc, settings, state, tabs, nil)
	return &playbackFixture{svc: svc, repo: repo, state: state, tabs: tabs}
}

func threeItemChannel() domain.Channel {
	return domain.Channel{
		CreatedAt:   1,
		ShuffleMode: domain.ShuffleSequential,
		Items: []domain.Item{
			{ID: "a", Title: "A", SeriesURL: "https://www.hulu.com/series/show-a"},
			{ID: "b", Title: "B", SeriesURL: "https://www.hulu.com/series/show-b"},
			{ID: "c", Title: "C", SeriesURL: "https://www.hulu.com/series/show-c"},
		},
	}
}

func TestPlaybackService_HistoryWalk(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, err := fx.svc.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !view.Running || view.ChannelName != "Drama" || view.LastItemID != "a" {
		t.Fatalf("after start: %+v", view.PlaybackState)
	}
	if view.CanGoBack {
		t.Fatalf("single-entry history: canGoBack should be false")
	}
	if view.TabID == 0 {
		t.Fatalf("a playback tab should have been opened")
	}

	// Deux avances: a → b → c.
	for i := 0; i < 2; i++ {
		if _, err := fx.svc.Skip(ctx); err != nil {
			t.Fatalf("Skip %d: %v", i, err)
		}
	}
	view, _ = fx.svc.State(ctx)
	if view.LastItemID != "c" || view.HistoryIndex != 2 || len(view.History) != 3 {
		t.Fatalf("after two skips: %+v", view.PlaybackState)
	}

	// Deux retours: c → b → a.
	for i := 0; i < 2; i++ {
		if err := fx.svc.PlayPrevious(ctx); err != nil {
			t.Fatalf("PlayPrevious %d: %v", i, err)
		}
	}
	view, _ = fx.svc.State(ctx)
	if view.LastItemID != "a" || view.HistoryIndex != 0 {
		t.Fatalf("after two backs: %+v", view.PlaybackState)
	}
	if view.CanGoBack {
		t.Fatalf("at history start: canGoBack should be false")
	}
	if !view.CanGoForward {
		t.Fatalf("forward history exists: canGoForward should be true")
	}

	// Reculer encore est un no-op.
	if err := fx.svc.PlayPrevious(ctx); err != nil {
		t.Fatalf("PlayPrevious at start: %v", err)
	}
	view, _ = fx.svc.State(ctx)
	if view.HistoryIndex != 0 {
		t.Fatalf("back at start should be a no-op: %+v", view.PlaybackState)
	}

	// Skip re-consomme l'historique forward plutôt que la rotation.
	if _, err := fx.svc.Skip(ctx); err != nil {
		t.Fatalf("Skip forward: %v", err)
	}
	view, _ = fx.svc.State(ctx)
	if view.LastItemID != "b" || view.HistoryIndex != 1 || len(view.History) != 3 {
		t.Fatalf("forward history should take precedence: %+v", view.PlaybackState)
	}
}

func TestPlaybackService_ReusesPlaybackTab(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	if _, err := fx.svc.Skip(ctx); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if got := fx.tabs.createdCount(); got != 1 {
		t.Fatalf("the playback tab should be reused, created %d tabs", got)
	}
}

func TestPlaybackService_PlayStatsBumpedOncePerStart(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	channels, err := fx.svc.channels.LoadNormalized(ctx)
	if err != nil {
		t.Fatalf("LoadNormalized: %v", err)
	}
	ch := channels["Drama"]
	if ch.Items[0].PlayCount != 1 {
		t.Fatalf("playCount: want 1, got %d", ch.Items[0].PlayCount)
	}
	if ch.Items[0].LastPlayedAt == 0 {
		t.Fatalf("lastPlayedAt should be stamped")
	}
	if ch.LastPlayedItemID != "a" {
		t.Fatalf("lastPlayedItemId: got %q", ch.LastPlayedItemID)
	}
}

func TestPlaybackService_SkipRespectsEligibility(t *testing.T) {
	ctx := context.Background()
	ch := domain.Channel{
		CreatedAt:   1,
		ShuffleMode: domain.ShuffleLeastPlayed,
		Items: []domain.Item{
			{ID: "e1", Title: "E1", SeriesURL: "https://www.hulu.com/series/show-one"},
			{ID: "e2", Title: "E2", SeriesURL: "https://www.hulu.com/series/show-two", PlayCount: 5, MaxPlays: 5},
		},
	}
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Sitcom": ch})

	if err := fx.svc.PlayChannel(ctx, "Sitcom", "e1"); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	if _, err := fx.svc.Skip(ctx); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	// e2 est à son plafond de lectures; e1 (maxPlays=0, illimité) reste le
	// seul candidat même s'il vient d'être joué.
	view, _ := fx.svc.State(ctx)
	if view.LastItemID != "e1" {
		t.Fatalf("want e1 again, got %q", view.LastItemID)
	}
	if len(view.History) != 2 || view.HistoryIndex != 1 {
		t.Fatalf("history after filtered skip: %+v", view.PlaybackState)
	}

	channels, err := fx.svc.channels.LoadNormalized(ctx)
	if err != nil {
		t.Fatalf("LoadNormalized: %v", err)
	}
	if got := channels["Sitcom"].Items[1].PlayCount; got != 5 {
		t.Fatalf("e2 must not have been played: playCount %d", got)
	}
}

func TestPlaybackService_NumericStartIDIsAnIndex(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", "2"); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, _ := fx.svc.State(ctx)
	if view.LastItemID != "c" {
		t.Fatalf("startItemId \"2\" should pick the third item, got %q", view.LastItemID)
	}
}

func TestPlaybackService_ResumesLastPlayedItem(t *testing.T) {
	ctx := context.Background()
	ch := threeItemChannel()
	ch.LastPlayedItemID = "b"
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": ch})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, _ := fx.svc.State(ctx)
	if view.LastItemID != "b" {
		t.Fatalf("channel should resume its last played item, got %q", view.LastItemID)
	}
}

func TestPlaybackService_UnknownOrEmptyChannelResetsState(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	if err := fx.svc.PlayChannel(ctx, "Nope", ""); err != nil {
		t.Fatalf("PlayChannel unknown: %v", err)
	}
	view, _ := fx.svc.State(ctx)
	if view.Running {
		t.Fatalf("unknown channel should reset playback state: %+v", view.PlaybackState)
	}
}

func TestPlaybackService_StopDeactivatesTabAndResets(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, _ := fx.svc.State(ctx)
	tabID := view.TabID

	if err := fx.svc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := fx.tabs.sentTo(tabID); got != 1 {
		t.Fatalf("deactivate message: want 1, got %d", got)
	}
	view, _ = fx.svc.State(ctx)
	if view.Running || view.TabID != 0 || len(view.History) != 0 {
		t.Fatalf("after stop: %+v", view.PlaybackState)
	}

	// Skip sans lecture en cours.
	skipped, err := fx.svc.Skip(ctx)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if skipped {
		t.Fatalf("skip with nothing running should report false")
	}
}

func TestPlaybackService_ShouldAutomate(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})

	// Rien ne tourne: désactivé.
	if got := fx.svc.ShouldAutomate(ctx, 1); got.Enabled {
		t.Fatalf("nothing running: %+v", got)
	}

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, _ := fx.svc.State(ctx)

	if got := fx.svc.ShouldAutomate(ctx, view.TabID); !got.Enabled {
		t.Fatalf("playback tab should automate: %+v", got)
	}
	if got := fx.svc.ShouldAutomate(ctx, view.TabID+100); got.Enabled {
		t.Fatalf("foreign tab must not automate")
	}
	if got := fx.svc.ShouldAutomate(ctx, 0); got.Enabled {
		t.Fatalf("tab 0 must never automate")
	}
}

func TestPlaybackService_CaptionResolutionChain(t *testing.T) {
	ctx := context.Background()
	off := false
	ch := threeItemChannel()
	ch.Profile = &domain.ChannelProfile{CaptionsLanguage: "fr"}
	ch.Items[0].CCEnabled = &off

	repo := newMemChannelRepo()
	repo.seed(t, "Drama", ch)
	settings := &memSettingsRepo{settings: domain.Settings{CaptionsEnabledDefault: true, CaptionsLanguage: "en", MaximizePlayer: true}}
	state := newMemStateRepo()
	tabs := newFakeTabs()
	svc := NewPlaybackService(zerolog.Nop(), NewChannelService(repo, settings), settings, state, tabs, nil)

	if err := svc.PlayChannel(ctx, "Drama", "a"); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}
	view, _ := svc.State(ctx)
	// L'item dit non, malgré le défaut global à oui.
	if view.Captions.Enabled {
		t.Fatalf("item-level ccEnabled=false should win: %+v", view.Captions)
	}
	// La langue vient du profil channel.
	if view.Captions.Language != "fr" {
		t.Fatalf("language: want fr, got %q", view.Captions.Language)
	}
	if !view.Maximize {
		t.Fatalf("maximize should inherit the global setting")
	}
}

func TestPlaybackService_EpisodeEndedDebounce(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})
	fx.svc.AdvanceDelay = 20 * time.Millisecond

	if err := fx.svc.PlayChannel(ctx, "Drama", ""); err != nil {
		t.Fatalf("PlayChannel: %v", err)
	}

	// Trois signaux rapprochés: un seul avancement.
	for i := 0; i < 3; i++ {
		if err := fx.svc.EpisodeEnded(ctx); err != nil {
			t.Fatalf("EpisodeEnded %d: %v", i, err)
		}
	}
	time.Sleep(150 * time.Millisecond)

	view, _ := fx.svc.State(ctx)
	if view.LastItemID != "b" {
		t.Fatalf("want a single advance to b, got %q", view.LastItemID)
	}
	if len(view.History) != 2 {
		t.Fatalf("history: want 2 entries, got %d", len(view.History))
	}
}

func TestPlaybackService_EpisodeEndedIgnoredWhenStopped(t *testing.T) {
	ctx := context.Background()
	fx := newPlaybackFixture(t, map[string]domain.Channel{"Drama": threeItemChannel()})
	fx.svc.AdvanceDelay = 10 * time.Millisecond

	if err := fx.svc.EpisodeEnded(ctx); err != nil {
		t.Fatalf("EpisodeEnded: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	view, _ := fx.svc.State(ctx)
	if view.Running {
		t.Fatalf("episodeEnded with nothing running must be ignored")
	}
}
