// Package tabhub tient le registre des onglets connus du coordinateur. Les
// agents distants enregistrent leur onglet via l'API et récupèrent les
// commandes (navigation, désactivation) sur le flux d'événements: le hub ne
// fait que refléter ce qu'on lui déclare et publier ce qu'on lui demande.
package tabhub

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

// Topics publiés sur le bus à destination des agents.
const (
	TopicNavigate = "tab.navigate"
	TopicMessage  = "tab.message"
)

type navigateEvent struct {
	TabID  int64  `json:"tabId"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

type messageEvent struct {
	TabID int64  `json:"tabId"`
	Type  string `json:"type"`
}

type Hub struct {
	mu     sync.Mutex
	nextID int64
	tabs   map[int64]ports.Tab
	bus    ports.EventBus
}

func New(bus ports.EventBus) *Hub {
	return &Hub{nextID: 1, tabs: make(map[int64]ports.Tab), bus: bus}
}

// Register déclare un onglet (id attribué par le hub) et le renvoie.
func (h *Hub) Register(url string, active bool) ports.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab := ports.Tab{ID: h.nextID, URL: url, Active: active}
	h.nextID++
	if active {
		h.clearActiveLocked()
	}
	h.tabs[tab.ID] = tab
	return tab
}

// Update met à jour l'URL/activité déclarées d'un onglet (heartbeat agent).
func (h *Hub) Update(id int64, url string, active bool) (ports.Tab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab, ok := h.tabs[id]
	if !ok {
		return ports.Tab{}, false
	}
	if active {
		h.clearActiveLocked()
	}
	tab.URL = url
	tab.Active = active
	h.tabs[id] = tab
	return tab, true
}

// Unregister oublie un onglet fermé.
func (h *Hub) Unregister(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tabs, id)
}

func (h *Hub) clearActiveLocked() {
	for id, tab := range h.tabs {
		if tab.Active {
			tab.Active = false
			h.tabs[id] = tab
		}
	}
}

func (h *Hub) Get(_ context.Context, id int64) (ports.Tab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab, ok := h.tabs[id]
	return tab, ok
}

func (h *Hub) Active(_ context.Context) (ports.Tab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, tab := range h.tabs {
		if tab.Active {
			return tab, true
		}
	}
	return ports.Tab{}, false
}

func (h *Hub) List(_ context.Context) []ports.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.Tab, 0, len(h.tabs))
	for _, tab := range h.tabs {
		out = append(out, tab)
	}
	// Ordre stable: l'orchestrateur prend "n'importe quel onglet pilotable",
	// autant que ce soit déterministe.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (h *Hub) Navigate(_ context.Context, id int64, url string) (ports.Tab, error) {
	h.mu.Lock()
	tab, ok := h.tabs[id]
	if !ok {
		h.mu.Unlock()
		return ports.Tab{}, ports.ErrNotFound
	}
	h.clearActiveLocked()
	tab.URL = url
	tab.Active = true
	h.tabs[id] = tab
	h.mu.Unlock()

	h.publish(TopicNavigate, navigateEvent{TabID: tab.ID, URL: url, Active: true})
	return tab, nil
}

func (h *Hub) Create(_ context.Context, url string) (ports.Tab, error) {
	h.mu.Lock()
	h.clearActiveLocked()
	tab := ports.Tab{ID: h.nextID, URL: url, Active: true}
	h.nextID++
	h.tabs[tab.ID] = tab
	h.mu.Unlock()

	h.publish(TopicNavigate, navigateEvent{TabID: tab.ID, URL: url, Active: true})
	return tab, nil
}

// Send publie un message one-way; un onglet inconnu est ignoré en silence,
// c'est un résultat attendu.
func (h *Hub) Send(_ context.Context, id int64, msg ports.TabMessage) {
	h.mu.Lock()
	_, ok := h.tabs[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.publish(TopicMessage, messageEvent{TabID: id, Type: msg.Type})
}

func (h *Hub) publish(topic string, payload any) {
	if h.bus == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.bus.Publish(topic, b)
}
