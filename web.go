package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/Seednode/kanarace/games/feed"
	"github.com/Seednode/kanarace/games/handicap"
	"github.com/Seednode/kanarace/games/match"
	"github.com/Seednode/kanarace/games/words"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; connect-src 'self' ws: wss:")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, log zerolog.Logger, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("kanarace v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		log.Debug().
			Int("bytes", written).
			Str("remote", realIP(r)).
			Dur("elapsed", time.Since(startTime).Round(time.Microsecond)).
			Msg("served version")
	}
}

// server bundles what the HTTP handlers share.
type server struct {
	cfg      *Config
	log      zerolog.Logger
	hub      *Hub
	registry *match.Registry
	library  *words.Library
	errs     chan error
}

func loadLibrary(cfg *Config) (*words.Library, error) {
	if cfg.words == "" {
		return words.Builtin()
	}

	return words.LoadDir(cfg.words)
}

// newServer wires a hub and registry around library. sink may be nil.
func newServer(cfg *Config, log zerolog.Logger, library *words.Library, sink match.ResultSink, clock clockwork.Clock) *server {
	hub := newHub(log.With().Str("component", "hub").Logger())

	registry := match.NewRegistry(match.Options{
		Clock:      clock,
		Words:      library,
		Calculator: handicap.NewCalculator(),
		Notifier:   hub,
		Sink:       sink,
		Timing: match.Timing{
			CountdownFrom: match.DefaultTiming().CountdownFrom,
			CountdownStep: cfg.countdownStep,
			RoundPause:    cfg.roundPause,
		},
		MaxRooms:    cfg.maxRooms,
		IdleTimeout: cfg.sessionTimeout,
		Logger:      log.With().Str("component", "match").Logger(),
	})

	return &server{
		cfg:      cfg,
		log:      log,
		hub:      hub,
		registry: registry,
		library:  library,
		errs:     make(chan error, 64),
	}
}

func (s *server) routes() http.Handler {
	cfg := s.cfg

	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		s.log.Error().Interface("panic", i).Str("path", r.URL.Path).Msg("handler panicked")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage(cfg, "Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, s.errs))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, s.errs))

	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, s.errs))

	mux.GET(cfg.prefix+"/favicon.ico", serveFavicons(cfg, s.errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, s.errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, s.errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, s.log, s.errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerRace(cfg, s.hub, s.registry, s.library, mux, s.errs)

	origins := cfg.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}).Handler(mux)
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	log := newLogger(cfg, nil)

	log.Info().Str("version", releaseVersion).Msg("starting kanarace")

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	library, err := loadLibrary(cfg)
	if err != nil {
		return err
	}

	log.Info().Strs("tiers", library.Names()).Msg("word tiers loaded")

	var sink match.ResultSink

	var publisher *feed.Publisher
	if cfg.natsURL != "" {
		publisher, err = feed.Connect(cfg.natsURL, cfg.natsSubject, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("closing match feed")
			}
		}()

		sink = publisher
	}

	s := newServer(cfg, log, library, sink, clockwork.NewRealClock())

	go drainErrors(log, s.errs)

	if cfg.sessionTimeout > 0 {
		go func() {
			if err := s.registry.RunReaper(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("room reaper stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           s.routes(),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info().Msgf("listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)

		var err error
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)

	s.registry.Close()
	s.hub.closeAll()

	return nil
}
