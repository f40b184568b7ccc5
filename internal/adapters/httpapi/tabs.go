package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/tabhub"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/httpjson"
)

// TabsHandler laisse les agents déclarer leurs onglets au hub: un agent
// enregistre son onglet au chargement, met à jour l'URL à chaque changement
// de route, se retire à la fermeture.
type TabsHandler struct {
	tabs *tabhub.Hub
}

func NewTabsHandler(tabs *tabhub.Hub) *TabsHandler {
	return &TabsHandler{tabs: tabs}
}

func (h *TabsHandler) Routes(r chi.Router) {
	r.Route("/tabs", func(r chi.Router) {
		r.Post("/", h.register)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.unregister)
	})
}

type tabRequest struct {
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

func (h *TabsHandler) register(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tab := h.tabs.Register(req.URL, req.Active)
	httpjson.Write(w, http.StatusCreated, tab)
}

func (h *TabsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid tab id")
		return
	}
	var req tabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tab, ok := h.tabs.Update(id, req.URL, req.Active)
	if !ok {
		httpjson.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	httpjson.Write(w, http.StatusOK, tab)
}

func (h *TabsHandler) unregister(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid tab id")
		return
	}
	h.tabs.Unregister(id)
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}
