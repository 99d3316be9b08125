// Package server exposes the converter over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VantageDataChat/figslides/convert"
	"github.com/VantageDataChat/figslides/deck"
	"github.com/flanksource/commons/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/patrickmn/go-cache"
)

const (
	// HeaderFailed carries the number of elements that failed to convert.
	HeaderFailed = "X-Figslides-Failed"

	contentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Config holds server settings.
type Config struct {
	Addr string
	// RateLimit is the number of requests per minute allowed per client IP.
	// Zero disables limiting.
	RateLimit int
	// CacheTTL is how long a generated file is kept. Zero disables caching.
	CacheTTL time.Duration
	// MaxBodyBytes bounds the request body.
	MaxBodyBytes int64
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":3000",
		RateLimit:       60,
		CacheTTL:        10 * time.Minute,
		MaxBodyBytes:    100 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves PPTX generation.
type Server struct {
	cfg    Config
	conv   *convert.Converter
	cache  *cache.Cache
	router chi.Router
	log    logger.Logger
}

type generated struct {
	data     []byte
	fileName string
	failed   int
}

// New creates a server using conv for every request.
func New(cfg Config, conv *convert.Converter) *Server {
	s := &Server{
		cfg:    cfg,
		conv:   conv,
		router: chi.NewRouter(),
		log:    logger.GetLogger("server"),
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "Backend running")
	})
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
		}
		r.Post("/generate-pptx", s.handleGenerate)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	key := cacheKey(body)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.log.Debugf("cache hit %s [%s]", key[:12], RequestID(r.Context()))
			writePPTX(w, v.(*generated))
			return
		}
	}

	doc, err := deck.ParseBytes(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := doc.RequireSlides(); err != nil {
		writeError(w, http.StatusBadRequest, "no slides to export")
		return
	}

	pres, report := s.conv.Convert(doc)
	for _, f := range report.Failures() {
		s.log.Warnf("%s element %d failed: %s [%s]", f.Kind, f.Index, f.Reason, RequestID(r.Context()))
	}

	var buf bytes.Buffer
	if err := pres.WriteTo(&buf); err != nil {
		s.log.Errorf("writing pptx: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := &generated{
		data:     buf.Bytes(),
		fileName: attachmentName(doc.FileName),
		failed:   report.Count(convert.StatusFailed),
	}
	s.log.Infof("generated %s: %d slides, %d bytes, %d failed [%s]",
		out.fileName, len(report.Slides), len(out.data), out.failed, RequestID(r.Context()))
	if s.cache != nil {
		s.cache.Set(key, out, cache.DefaultExpiration)
	}
	writePPTX(w, out)
}

func cacheKey(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// attachmentName returns a header-safe "<name>.pptx".
func attachmentName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '"', r == '\\', r == '/':
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".pptx")
	if name == "" {
		name = "presentation"
	}
	return name + ".pptx"
}

func writePPTX(w http.ResponseWriter, g *generated) {
	h := w.Header()
	h.Set("Content-Type", contentTypePPTX)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", g.fileName))
	h.Set("Content-Length", strconv.Itoa(len(g.data)))
	h.Set(HeaderFailed, strconv.Itoa(g.failed))
	w.WriteHeader(http.StatusOK)
	w.Write(g.data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
