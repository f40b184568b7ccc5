package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/httpjson"
)

// PlaybackHandler expose le contrat de messages du coordinateur. Les
// réponses suivent le contrat d'origine: {ok} booléen, jamais d'erreur
// propagée pour un no-op (channel inconnu, rien en cours, …).
type PlaybackHandler struct {
	playback *app.PlaybackService
}

func NewPlaybackHandler(playback *app.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playback: playback}
}

func (h *PlaybackHandler) Routes(r chi.Router) {
	r.Route("/playback", func(r chi.Router) {
		r.Get("/state", h.state)
		r.Get("/should-automate", h.shouldAutomate)
		r.Post("/play-channel", h.playChannel)
		r.Post("/play-item", h.playItem)
		r.Post("/skip", h.skip)
		r.Post("/back", h.back)
		r.Post("/stop", h.stop)
		r.Post("/episode-ended", h.episodeEnded)
	})
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *PlaybackHandler) state(w http.ResponseWriter, r *http.Request) {
	view, err := h.playback.State(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *PlaybackHandler) shouldAutomate(w http.ResponseWriter, r *http.Request) {
	tabID, _ := strconv.ParseInt(r.URL.Query().Get("tabId"), 10, 64)
	httpjson.Write(w, http.StatusOK, h.playback.ShouldAutomate(r.Context(), tabID))
}

type playChannelRequest struct {
	ChannelName string `json:"channelName"`
	StartItemID string `json:"startItemId,omitempty"`
}

func (h *PlaybackHandler) playChannel(w http.ResponseWriter, r *http.Request) {
	var req playChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.playback.PlayChannel(r.Context(), req.ChannelName, req.StartItemID); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

type playItemRequest struct {
	ChannelName string `json:"channelName"`
	ItemID      string `json:"itemId"`
}

func (h *PlaybackHandler) playItem(w http.ResponseWriter, r *http.Request) {
	var req playItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.playback.PlayItemNow(r.Context(), req.ChannelName, req.ItemID); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

func (h *PlaybackHandler) skip(w http.ResponseWriter, r *http.Request) {
	ok, err := h.playback.Skip(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: ok})
}

func (h *PlaybackHandler) back(w http.ResponseWriter, r *http.Request) {
	if err := h.playback.PlayPrevious(r.Context()); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

func (h *PlaybackHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.playback.Stop(r.Context()); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

func (h *PlaybackHandler) episodeEnded(w http.ResponseWriter, r *http.Request) {
	if err := h.playback.EpisodeEnded(r.Context()); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}
