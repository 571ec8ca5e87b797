package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/refetch-dev/refetch/internal/config"
	"github.com/refetch-dev/refetch/pkg/fetch"
	"github.com/refetch-dev/refetch/pkg/loop"
	"github.com/refetch-dev/refetch/pkg/observe"
	"github.com/refetch-dev/refetch/pkg/resource"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve configured sources as live resource state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if len(cfg.Sources) == 0 {
				return fmt.Errorf("no sources configured; run 'refetch init' and edit %s", config.ConfigFileName)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "project directory")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	return cmd
}

// source binds one configured URL to its resource.
type source struct {
	name string
	res  *resource.Resource[[]byte]
}

// app holds the serve command's runtime state.
type app struct {
	logger   *slog.Logger
	sources  []*source
	byName   map[string]*source
	upgrader websocket.Upgrader
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var loopOpts []loop.Option
	loopOpts = append(loopOpts, loop.WithLogger(logger))
	if cfg.Budget.MaxFetches > 0 {
		loopOpts = append(loopOpts, loop.WithBudget(loop.NewBudget(cfg.Budget.MaxFetches, cfg.Budget.Window())))
	}
	lp := loop.New(loopOpts...)
	lp.Start()
	defer lp.Stop()

	recorder := observe.NewRecorder()

	a := &app{
		logger: logger,
		byName: make(map[string]*source),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	for _, sc := range cfg.Sources {
		sc := sc
		producer := observe.Traced("fetch "+sc.Name, fetch.HTTP(nil, sc.URL))
		res := resource.New(producer,
			resource.WithCtx(lp),
			resource.WithLogger(logger.With("source", sc.Name)),
			resource.WithObserver(recorder.Observer(sc.Name)),
		)
		res.StaleTime(sc.StaleTime())
		if sc.RetryCount > 0 {
			res.RetryOnError(sc.RetryCount, sc.RetryDelay())
		}
		defer res.Close()

		src := &source{name: sc.Name, res: res}
		a.sources = append(a.sources, src)
		a.byName[sc.Name] = src
		logger.Info("source registered", "name", sc.Name, "url", sc.URL)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/sources", a.handleList)
	r.Get("/sources/{name}", a.handleGet)
	r.Post("/sources/{name}/revalidate", a.handleRevalidate)
	r.Get("/ws", a.handleWS)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// snapshotPayload is the wire form of a resource snapshot.
type snapshotPayload struct {
	Name      string          `json:"name"`
	State     string          `json:"state"`
	IsLoading bool            `json:"isLoading"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func payload(name string, s resource.Snapshot[[]byte]) snapshotPayload {
	p := snapshotPayload{
		Name:      name,
		State:     s.State.String(),
		IsLoading: s.Loading,
	}
	if len(s.Data) > 0 {
		if json.Valid(s.Data) {
			p.Data = json.RawMessage(s.Data)
		} else {
			quoted, _ := json.Marshal(string(s.Data))
			p.Data = quoted
		}
	}
	if s.Err != nil {
		p.Error = s.Err.Error()
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *app) handleList(w http.ResponseWriter, r *http.Request) {
	payloads := make([]snapshotPayload, 0, len(a.sources))
	for _, src := range a.sources {
		payloads = append(payloads, payload(src.name, src.res.Snapshot()))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (a *app) handleGet(w http.ResponseWriter, r *http.Request) {
	src, ok := a.byName[chi.URLParam(r, "name")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown source"})
		return
	}

	// Kick off a revalidation only when the last commit went stale.
	src.res.Fetch()
	writeJSON(w, http.StatusOK, payload(src.name, src.res.Snapshot()))
}

func (a *app) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	src, ok := a.byName[chi.URLParam(r, "name")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown source"})
		return
	}

	h := src.res.Revalidate()
	if _, err := h.Await(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, payload(src.name, src.res.Snapshot()))
		return
	}
	writeJSON(w, http.StatusOK, payload(src.name, src.res.Snapshot()))
}

// handleWS streams snapshot updates for every source to the client. One
// message per commit, JSON encoded. Slow consumers drop intermediate
// snapshots rather than stalling the commit path.
func (a *app) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan snapshotPayload, 64)
	notify := func(src *source) func() {
		return func() {
			select {
			case send <- payload(src.name, src.res.Snapshot()):
			default:
			}
		}
	}

	var cancels []func()
	for _, src := range a.sources {
		cancels = append(cancels, src.res.Subscribe(notify(src)))
		notify(src)()
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case p := <-send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(p); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
