package tabhub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

func TestHub_RegisterUpdateUnregister(t *testing.T) {
	ctx := context.Background()
	h := New(nil)

	first := h.Register("https://www.netflix.com/browse", true)
	if first.ID != 1 {
		t.Fatalf("first tab id: want 1, got %d", first.ID)
	}
	second := h.Register("https://www.hulu.com/hub/home", true)
	if second.ID != 2 {
		t.Fatalf("second tab id: want 2, got %d", second.ID)
	}

	// Un seul onglet actif à la fois.
	active, ok := h.Active(ctx)
	if !ok || active.ID != second.ID {
		t.Fatalf("active: %+v ok=%v", active, ok)
	}
	if got, _ := h.Get(ctx, first.ID); got.Active {
		t.Fatalf("first tab should have lost active")
	}

	if _, ok := h.Update(second.ID, "https://www.hulu.com/watch/x", true); !ok {
		t.Fatalf("update should find the tab")
	}
	if got, _ := h.Get(ctx, second.ID); got.URL != "https://www.hulu.com/watch/x" {
		t.Fatalf("update url: got %q", got.URL)
	}
	if _, ok := h.Update(99, "x", false); ok {
		t.Fatalf("unknown tab update should report false")
	}

	h.Unregister(first.ID)
	if _, ok := h.Get(ctx, first.ID); ok {
		t.Fatalf("unregistered tab should be gone")
	}
	if got := h.List(ctx); len(got) != 1 {
		t.Fatalf("list: want 1, got %d", len(got))
	}
}

func TestHub_ListIsSortedByID(t *testing.T) {
	ctx := context.Background()
	h := New(nil)
	for i := 0; i < 5; i++ {
		h.Register("https://www.netflix.com/browse", false)
	}
	tabs := h.List(ctx)
	for i := 1; i < len(tabs); i++ {
		if tabs[i-1].ID >= tabs[i].ID {
			t.Fatalf("list not sorted: %+v", tabs)
		}
	}
}

func TestHub_NavigatePublishesCommand(t *testing.T) {
	ctx := context.Background()
	bus := memorybus.New()
	h := New(bus)

	events, cancel := bus.Subscribe()
	defer cancel()

	tab := h.Register("https://www.netflix.com/browse", false)
	updated, err := h.Navigate(ctx, tab.ID, "https://www.netflix.com/watch/81234567")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !updated.Active || updated.URL != "https://www.netflix.com/watch/81234567" {
		t.Fatalf("navigate result: %+v", updated)
	}

	select {
	case ev := <-events:
		if ev.Topic != TopicNavigate {
			t.Fatalf("topic: want %q, got %q", TopicNavigate, ev.Topic)
		}
		var payload navigateEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.TabID != tab.ID || payload.URL != "https://www.netflix.com/watch/81234567" {
			t.Fatalf("payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a navigate event")
	}

	if _, err := h.Navigate(ctx, 99, "https://www.netflix.com/"); err != ports.ErrNotFound {
		t.Fatalf("navigate unknown tab: want ErrNotFound, got %v", err)
	}
}

func TestHub_SendIgnoresUnknownTab(t *testing.T) {
	ctx := context.Background()
	bus := memorybus.New()
	h := New(bus)

	events, cancel := bus.Subscribe()
	defer cancel()

	h.Send(ctx, 42, ports.TabMessage{Type: ports.TabMessageDeactivate})
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for unknown tab: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	tab := h.Register("https://www.hulu.com/watch/x", true)
	h.Send(ctx, tab.ID, ports.TabMessage{Type: ports.TabMessageDeactivate})
	select {
	case ev := <-events:
		if ev.Topic != TopicMessage {
			t.Fatalf("topic: got %q", ev.Topic)
		}
		var payload messageEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.TabID != tab.ID || payload.Type != ports.TabMessageDeactivate {
			t.Fatalf("payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a message event")
	}
}

func TestHub_CreateActivatesNewTab(t *testing.T) {
	ctx := context.Background()
	h := New(nil)
	existing := h.Register("https://www.netflix.com/browse", true)

	created, err := h.Create(ctx, "https://www.hulu.com/watch/x")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.Active {
		t.Fatalf("created tab should be active")
	}
	if got, _ := h.Get(ctx, existing.ID); got.Active {
		t.Fatalf("previous active tab should have been cleared")
	}
}
