package sqlite

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

func TestChannelsRepository_ReplaceAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewChannelsRepository(db.SQL)

	got, err := repo.AllRaw(ctx)
	if err != nil {
		t.Fatalf("AllRaw(empty): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh db: want empty, got %d entries", len(got))
	}

	channels := map[string]domain.Channel{
		"Drama": {
			CreatedAt:   1000,
			ShuffleMode: domain.ShuffleRandom,
			Items: []domain.Item{{
				ID:        "item-1",
				Title:     "Ep 1",
				Platform:  domain.PlatformHulu,
				SeriesURL: "https://www.hulu.com/series/show-a",
				AddedAt:   1000,
			}},
		},
		"Comedy": {CreatedAt: 2000, Items: []domain.Item{}},
	}
	if err := repo.ReplaceAll(ctx, channels); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err = repo.AllRaw(ctx)
	if err != nil {
		t.Fatalf("AllRaw: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 channels, got %d", len(got))
	}
	var drama domain.Channel
	if err := json.Unmarshal(got["Drama"], &drama); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if drama.ShuffleMode != domain.ShuffleRandom || len(drama.Items) != 1 {
		t.Fatalf("round trip: %+v", drama)
	}
	if drama.Items[0].Title != "Ep 1" {
		t.Fatalf("item title: got %q", drama.Items[0].Title)
	}

	// ReplaceAll remplace, il ne fusionne pas.
	if err := repo.ReplaceAll(ctx, map[string]domain.Channel{"Drama": drama}); err != nil {
		t.Fatalf("ReplaceAll 2: %v", err)
	}
	got, err = repo.AllRaw(ctx)
	if err != nil {
		t.Fatalf("AllRaw 2: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 channel after replace, got %d", len(got))
	}
	if _, ok := got["Comedy"]; ok {
		t.Fatalf("Comedy should have been dropped by the replace")
	}
}
