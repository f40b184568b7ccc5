package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/tabhub"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"
)

type Server struct {
	logger   zerolog.Logger
	playback *app.PlaybackService
	channels *app.ChannelService
	settings *app.SettingsService
	tabs     *tabhub.Hub
	bus      ports.EventBus
}

func NewServer(logger zerolog.Logger, playback *app.PlaybackService, channels *app.ChannelService, settings *app.SettingsService, tabs *tabhub.Hub, bus ports.EventBus) *Server {
	return &Server{logger: logger, playback: playback, channels: channels, settings: settings, tabs: tabs, bus: bus}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/events", s.handleEvents)

		if s.playback != nil {
			NewPlaybackHandler(s.playback).Routes(r)
		}
		if s.channels != nil {
			NewChannelsHandler(s.channels).Routes(r)
		}
		if s.settings != nil {
			NewSettingsHandler(s.settings).Routes(r)
		}
		if s.tabs != nil {
			NewTabsHandler(s.tabs).Routes(r)
		}
	})

	return r
}
