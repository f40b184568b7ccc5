package domain

import (
	"reflect"
	"testing"
)

func TestPlaybackState_ApplyAppendTruncatesForward(t *testing.T) {
	s := PlaybackState{History: []string{"a", "b", "c"}, HistoryIndex: 0}
	next := s.Apply("x", TransitionAppend)
	if !reflect.DeepEqual(next.History, []string{"a", "x"}) {
		t.Fatalf("history: %v", next.History)
	}
	if next.HistoryIndex != 1 || next.LastItemID != "x" {
		t.Fatalf("state: %+v", next)
	}
}

func TestPlaybackState_ApplyReset(t *testing.T) {
	s := PlaybackState{History: []string{"a", "b"}, HistoryIndex: 1}
	next := s.Apply("x", TransitionReset)
	if !reflect.DeepEqual(next.History, []string{"x"}) || next.HistoryIndex != 0 {
		t.Fatalf("state: %+v", next)
	}
}

func TestPlaybackState_ApplyBackForwardClamped(t *testing.T) {
	s := PlaybackState{History: []string{"a", "b"}, HistoryIndex: 0}
	if next := s.Apply("a", TransitionBack); next.HistoryIndex != 0 {
		t.Fatalf("back at start should clamp: %+v", next)
	}
	s.HistoryIndex = 1
	if next := s.Apply("b", TransitionForward); next.HistoryIndex != 1 {
		t.Fatalf("forward at end should clamp: %+v", next)
	}
}

func TestPlaybackState_NormalizeRepairsCorruptState(t *testing.T) {
	s := PlaybackState{HistoryIndex: 7}
	clean := s.Normalize()
	if clean.History == nil {
		t.Fatalf("history should never be nil")
	}
	if clean.HistoryIndex != -1 {
		t.Fatalf("index should be clamped to -1, got %d", clean.HistoryIndex)
	}
	if clean.Captions.Language != "en" {
		t.Fatalf("language default: got %q", clean.Captions.Language)
	}
}

func TestPlaybackState_ViewDerivedBooleans(t *testing.T) {
	s := PlaybackState{Running: true, History: []string{"a", "b", "c"}, HistoryIndex: 1}
	view := s.View()
	if !view.CanGoBack || !view.CanGoForward {
		t.Fatalf("middle of history: %+v", view)
	}

	s.HistoryIndex = 0
	view = s.View()
	if view.CanGoBack || !view.CanGoForward {
		t.Fatalf("start of history: %+v", view)
	}

	s.Running = false
	view = s.View()
	if view.CanGoBack || view.CanGoForward {
		t.Fatalf("not running: %+v", view)
	}
}

func TestItem_IdentityKeyUsesPreferredURL(t *testing.T) {
	a := Item{Platform: PlatformHulu, SourceURL: "https://www.hulu.com/watch/x"}
	b := Item{Platform: PlatformHulu, EpisodeURL: "https://www.hulu.com/watch/x", SeriesURL: "https://www.hulu.com/series/s"}
	if a.IdentityKey() != b.IdentityKey() {
		t.Fatalf("same preferred URL should collide: %q vs %q", a.IdentityKey(), b.IdentityKey())
	}
	c := Item{Platform: PlatformNetflix, SourceURL: "https://www.hulu.com/watch/x"}
	if a.IdentityKey() == c.IdentityKey() {
		t.Fatalf("platform is part of the identity")
	}
}

func TestNormalizeShuffleMode(t *testing.T) {
	if got := NormalizeShuffleMode("random"); got != ShuffleRandom {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeShuffleMode("bogus"); got != ShuffleSequential {
		t.Fatalf("unknown mode should fall back to sequential, got %q", got)
	}
	if got := NormalizeShuffleMode(""); got != ShuffleSequential {
		t.Fatalf("empty mode should fall back to sequential, got %q", got)
	}
}
