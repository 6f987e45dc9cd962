package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"doodle-server/config"
	"doodle-server/core"
	"doodle-server/editor"
	"doodle-server/generation"
	"doodle-server/handlers/api/artifacts"
	"doodle-server/handlers/api/sketches"
	"doodle-server/handlers/websocket"
	authMiddleware "doodle-server/middleware"
	"doodle-server/stores"
)

type sketchRoom struct {
	ID         string    `json:"id"`
	Users      int       `json:"users"`
	Objects    int       `json:"objects"`
	LastActive time.Time `json:"lastActive"`
}

func setupRouter(cfg *config.Config, reg *editor.Registry, store core.ArtifactStore) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			}

			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(authMiddleware.AuthJWT([]byte(cfg.JWTSecret)))
			logrus.Info("JWT authentication enabled")
		}

		r.Route("/sketches", func(r chi.Router) {
			r.Post("/", sketches.HandleCreate(reg))
			r.Get("/", sketches.HandleList(reg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sketches.HandleGet(reg))
				r.Delete("/", sketches.HandleDelete(reg))
				r.Put("/tool", sketches.HandleSelectTool(reg))
				r.Put("/style", sketches.HandleSetStyle(reg))
				r.Put("/prompt", sketches.HandleSetPrompt(reg))
				r.Post("/pointer", sketches.HandlePointer(reg))
				r.Delete("/selection", sketches.HandleDeleteSelection(reg))
				r.Post("/clear", sketches.HandleClear(reg))
				r.Put("/objects/{objectId}/text", sketches.HandleEditText(reg))
				r.Get("/snapshot", sketches.HandleSnapshot(reg))
				r.Post("/generate", sketches.HandleGenerate(reg, cfg.Generation.Timeout))
				r.Get("/download", sketches.HandleDownload(reg))
			})
		})

		r.Route("/artifacts/{id}", func(r chi.Router) {
			r.Get("/", artifacts.HandleGet(store))
			r.Delete("/", artifacts.HandleDelete(store))
		})

		r.Get("/rooms", handleRooms(reg))
	})

	return r
}

// handleRooms lists live sketches with their connected socket counts,
// busiest first.
func handleRooms(reg *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := websocket.GetActiveSketches()
		rooms := make([]sketchRoom, 0)
		for _, s := range reg.List() {
			rooms = append(rooms, sketchRoom{
				ID:         s.ID,
				Users:      users[s.ID],
				Objects:    s.Objects,
				LastActive: s.LastActive,
			})
		}
		sort.SliceStable(rooms, func(i, j int) bool {
			return rooms[i].Users > rooms[j].Users
		})
		render.JSON(w, r, rooms)
	}
}

func setupLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func startSweeper(cfg config.SessionConfig, reg *editor.Registry) (*cron.Cron, error) {
	c := cron.New()
	if cfg.IdleTimeout <= 0 || cfg.SweepSchedule == "" {
		logrus.Info("idle sketch sweeping disabled")
		return c, nil
	}
	_, err := c.AddFunc(cfg.SweepSchedule, func() {
		reg.Sweep(cfg.IdleTimeout)
	})
	if err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", cfg.SweepSchedule, err)
	}
	c.Start()
	logrus.WithFields(logrus.Fields{
		"schedule":    cfg.SweepSchedule,
		"idleTimeout": cfg.IdleTimeout,
	}).Info("idle sketch sweeper started")
	return c, nil
}

func waitForShutdown(srv *http.Server, ioo *socketio.Server, sweeper *cron.Cron, store core.ArtifactStore) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	<-sweeper.Stop().Done()
	ioo.Close(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logrus.WithError(err).Warn("close storage")
		}
	}
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if cfg.IssueToken != "" {
		if cfg.JWTSecret == "" {
			logrus.Fatal("JWT_SECRET must be set to issue tokens")
		}
		token, err := authMiddleware.CreateJWT([]byte(cfg.JWTSecret), cfg.IssueToken, "", 7*24*time.Hour)
		if err != nil {
			logrus.WithError(err).Fatal("failed to create token")
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	store, err := stores.GetStore(ctx, cfg.Storage)
	if err != nil {
		logrus.WithField("event", "open storage").Fatal(err)
	}
	gen, err := generation.New(ctx, cfg.Generation)
	if err != nil {
		logrus.WithField("event", "setup generation").Fatal(err)
	}

	var ioo *socketio.Server
	reg := editor.NewRegistry(editor.CanvasFactory(
		editor.WithGenerator(gen),
		editor.WithArtifacts(store),
		editor.WithListener(func(e *editor.Editor) {
			websocket.Publish(ioo, e)
		}),
	))
	ioo = websocket.SetupSocketIO(reg)

	r := setupRouter(cfg, reg, store)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	sweeper, err := startSweeper(cfg.Sessions, reg)
	if err != nil {
		logrus.WithField("event", "start sweeper").Fatal(err)
	}

	srv := &http.Server{Addr: cfg.Listen, Handler: r}
	logrus.WithField("addr", cfg.Listen).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, ioo, sweeper, store)
}
