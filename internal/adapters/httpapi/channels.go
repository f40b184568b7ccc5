package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/httpjson"
)

type ChannelsHandler struct {
	channels *app.ChannelService
}

func NewChannelsHandler(channels *app.ChannelService) *ChannelsHandler {
	return &ChannelsHandler{channels: channels}
}

func (h *ChannelsHandler) Routes(r chi.Router) {
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{name}", h.get)
		r.Put("/{name}", h.update)
		r.Delete("/{name}", h.delete)
		r.Post("/{name}/clone", h.clone)
		r.Post("/{name}/randomize", h.randomize)
		r.Post("/{name}/dedupe", h.dedupe)
		r.Post("/{name}/batch", h.batchAdd)
	})
	r.Get("/export", h.export)
	r.Post("/import", h.importBackup)
}

func (h *ChannelsHandler) list(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.LoadNormalized(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, channels)
}

type createChannelRequest struct {
	Name string `json:"name"`
}

func (h *ChannelsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ch, err := h.channels.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, app.ErrConflict) {
			httpjson.WriteError(w, http.StatusConflict, "channel already exists")
			return
		}
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, ch)
}

func (h *ChannelsHandler) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ch, err := h.channels.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, ch)
}

func (h *ChannelsHandler) update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var ch domain.Channel
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := h.channels.Update(r.Context(), name, ch)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

func (h *ChannelsHandler) delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.channels.Delete(r.Context(), name); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

func (h *ChannelsHandler) clone(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cloneName, err := h.channels.Clone(r.Context(), name)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"name": cloneName})
}

func (h *ChannelsHandler) randomize(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.channels.Randomize(r.Context(), name); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, okResponse{OK: true})
}

func (h *ChannelsHandler) dedupe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := h.channels.Dedupe(r.Context(), name)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"removed": removed})
}

type batchAddRequest struct {
	URLs string `json:"urls"`
}

func (h *ChannelsHandler) batchAdd(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req batchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	report, err := h.channels.BatchAdd(r.Context(), name, req.URLs)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}

func (h *ChannelsHandler) export(w http.ResponseWriter, r *http.Request) {
	backup, err := h.channels.Export(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, backup)
}

func (h *ChannelsHandler) importBackup(w http.ResponseWriter, r *http.Request) {
	var backup app.Backup
	if err := json.NewDecoder(r.Body).Decode(&backup); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	imported, err := h.channels.Import(r.Context(), backup)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"imported": imported})
}
