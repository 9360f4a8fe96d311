package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lithicearth/lithicearth-server/internal/archive"
	"github.com/lithicearth/lithicearth-server/internal/config"
	"github.com/lithicearth/lithicearth-server/internal/flavor"
	"github.com/lithicearth/lithicearth-server/internal/handler"
	"github.com/lithicearth/lithicearth-server/internal/session"
	"github.com/lithicearth/lithicearth-server/internal/store"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()
	slog.Info("store connected", "driver", cfg.StoreDriver)

	images, err := store.NewDiskImageStore(cfg.ImageDir, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("opening image store: %w", err)
	}

	svc, err := archive.NewService(db, images)
	if err != nil {
		return fmt.Errorf("creating archive service: %w", err)
	}

	hub := ws.NewHub()
	svc.OnRefresh = func(snap archive.Snapshot) {
		msg, err := ws.NewMessage(ws.TypeArchiveUpdated, archiveUpdatedMessage{
			Records:     len(snap.Records),
			Sites:       len(snap.Sites),
			RefreshedAt: snap.RefreshedAt,
		})
		if err != nil {
			slog.Error("failed to build archive update", "error", err)
			return
		}
		hub.BroadcastMessage(msg)
	}

	// A failed initial load still serves; the next change retries.
	if err := svc.Refresh(ctx); err != nil {
		slog.Warn("initial archive load failed", "error", err)
	}
	go func() {
		if err := svc.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("archive watch stopped", "error", err)
		}
	}()

	metrics, err := session.NewMetrics()
	if err != nil {
		return fmt.Errorf("creating session metrics: %w", err)
	}
	sessions := session.NewManager(db, flavor.New(cfg.Locale), metrics)
	defer sessions.CloseAll()

	router := handler.NewRouter(sessions, cfg.Locale)
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	hubDone := make(chan struct{})
	defer close(hubDone)
	go hub.Run(hubDone)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := handler.NewArchiveAPI(svc, handler.APIConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		ImageDir:       images.Root(),
		OriginAllowed:  cfg.OriginAllowed,
	})
	engine := api.Engine()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}
	engine.GET("/ws", func(c *gin.Context) {
		handleWebSocket(hub, router, &upgrader, c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type archiveUpdatedMessage struct {
	Records     int       `json:"records"`
	Sites       int       `json:"sites"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

func handleWebSocket(hub *ws.Hub, router *handler.Router, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(uuid.NewString(), hub, conn)
	hub.Register <- client
	router.StartHelloTimeout(client)

	go client.WritePump()
	go client.ReadPump()
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
