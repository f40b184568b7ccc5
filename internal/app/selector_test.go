package app

import (
	"testing"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

func TestIsEligible_MaxPlays(t *testing.T) {
	now := int64(1_000_000)
	if !IsEligible(domain.Item{MaxPlays: 2, PlayCount: 1}, now) {
		t.Fatalf("playCount under cap should be eligible")
	}
	if IsEligible(domain.Item{MaxPlays: 2, PlayCount: 2}, now) {
		t.Fatalf("playCount at cap should be ineligible")
	}
	if !IsEligible(domain.Item{MaxPlays: 0, PlayCount: 500}, now) {
		t.Fatalf("maxPlays=0 means unlimited")
	}
}

func TestIsEligible_Cooldown(t *testing.T) {
	now := int64(10_000_000)
	tenMin := int64(10 * 60_000)

	it := domain.Item{CooldownMinutes: 10, LastPlayedAt: now - tenMin + 1}
	if IsEligible(it, now) {
		t.Fatalf("item inside cooldown window should be ineligible")
	}
	it.LastPlayedAt = now - tenMin
	if !IsEligible(it, now) {
		t.Fatalf("cooldown elapsed exactly: eligible")
	}
	// Jamais joué: le cooldown ne s'applique pas.
	if !IsEligible(domain.Item{CooldownMinutes: 10}, now) {
		t.Fatalf("never-played item should be eligible")
	}
}

func TestEligibleItems_FallsBackToFullList(t *testing.T) {
	now := int64(1_000_000)
	items := []domain.Item{
		{ID: "a", MaxPlays: 1, PlayCount: 1},
		{ID: "b", MaxPlays: 1, PlayCount: 1},
	}
	got := EligibleItems(items, now)
	if len(got) != 2 {
		t.Fatalf("exhausted channel must fall back to full list, got %d items", len(got))
	}
}

func TestPickNextIndex_SequentialWrap(t *testing.T) {
	items := []domain.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := PickNextIndex(items, 2, domain.ShuffleSequential, nil); got != 0 {
		t.Fatalf("want wrap to 0, got %d", got)
	}
	if got := PickNextIndex(items, 0, domain.ShuffleSequential, nil); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := PickNextIndex(items, -1, domain.ShuffleSequential, nil); got != 0 {
		t.Fatalf("no current item: want 0, got %d", got)
	}
}

func TestPickNextIndex_RandomCollisionShiftsNext(t *testing.T) {
	items := []domain.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	// Tirage == index courant: on décale d'un cran cyclique.
	if got := PickNextIndex(items, 1, domain.ShuffleRandom, func(int) int { return 1 }); got != 2 {
		t.Fatalf("want shift to 2, got %d", got)
	}
	if got := PickNextIndex(items, 2, domain.ShuffleRandom, func(int) int { return 2 }); got != 0 {
		t.Fatalf("want cyclic shift to 0, got %d", got)
	}
	// Tirage différent: pris tel quel.
	if got := PickNextIndex(items, 1, domain.ShuffleRandom, func(int) int { return 0 }); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
	// Un seul item: toujours 0, pas de tirage.
	if got := PickNextIndex(items[:1], 0, domain.ShuffleRandom, func(int) int { panic("no draw") }); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
}

func TestPickNextIndex_LeastPlayedFirstOccurrence(t *testing.T) {
	items := []domain.Item{
		{ID: "a", PlayCount: 3},
		{ID: "b", PlayCount: 1},
		{ID: "c", PlayCount: 1},
	}
	if got := PickNextIndex(items, 0, domain.ShuffleLeastPlayed, nil); got != 1 {
		t.Fatalf("tie on playCount keeps first occurrence, want 1, got %d", got)
	}
}

func TestPickNextIndex_NewestFirstOccurrence(t *testing.T) {
	items := []domain.Item{
		{ID: "a", AddedAt: 100},
		{ID: "b", AddedAt: 300},
		{ID: "c", AddedAt: 300},
	}
	if got := PickNextIndex(items, 0, domain.ShuffleNewest, nil); got != 1 {
		t.Fatalf("tie on addedAt keeps first occurrence, want 1, got %d", got)
	}
}

func TestPickNextIndex_EmptyAndUnknownMode(t *testing.T) {
	if got := PickNextIndex(nil, 0, domain.ShuffleSequential, nil); got != -1 {
		t.Fatalf("empty list: want -1, got %d", got)
	}
	items := []domain.Item{{ID: "a"}, {ID: "b"}}
	// Mode inconnu = sequential.
	if got := PickNextIndex(items, 0, domain.ShuffleMode("bogus"), nil); got != 1 {
		t.Fatalf("unknown mode should behave as sequential, got %d", got)
	}
}
