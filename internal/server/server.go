package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/shiomura/utakai/internal/api"
	"github.com/shiomura/utakai/internal/event"
	"github.com/shiomura/utakai/internal/evidence"
	"github.com/shiomura/utakai/internal/feed"
	"github.com/shiomura/utakai/internal/lookup"
	"github.com/shiomura/utakai/internal/session"
	"github.com/shiomura/utakai/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	// Passphrase is the static shared secret the whole tool sits behind.
	// Empty disables the gate (local development).
	Passphrase string

	Redis struct {
		Feed struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Store struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Lookup struct {
		Songs struct {
			BaseURL string
			Country string
			Limit   int
		}
	}

	Roster struct {
		Seed []string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		store    *session.Service
		feed     *feed.Service
		evidence *evidence.Store
		songs    *lookup.SongClient
	}

	api  *api.API
	http *http.Server

	pumpCtx    context.Context
	pumpCancel context.CancelFunc
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}
	s.pumpCtx, s.pumpCancel = context.WithCancel(context.Background())

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()

	if err := s.initStorage(); err != nil {
		return nil, fmt.Errorf("server: init storage: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Feed.Addrs,
		Password: s.c.Redis.Feed.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := s.c.Postgres.Store
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initService() {
	s.service.store = session.NewService(session.Config{
		DB:       s.infra.postgres,
		EventBus: s.eb,
	})

	s.service.feed = feed.NewService(feed.Config{
		EventBus: s.eb,
		Redis:    s.infra.redis,
		Prefix:   s.c.Redis.Feed.Prefix,
		Snapshot: s.service.store.List,
	})

	s.service.evidence = evidence.NewStore(evidence.Config{
		DB: s.infra.postgres,
	})

	s.service.songs = lookup.NewSongClient(lookup.SongConfig{
		BaseURL: s.c.Lookup.Songs.BaseURL,
		Country: s.c.Lookup.Songs.Country,
		Limit:   s.c.Lookup.Songs.Limit,
	})
}

func (s *Server) initStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.service.store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := s.service.evidence.EnsureSchema(ctx); err != nil {
		return err
	}

	return s.service.store.SeedRoster(ctx, s.c.Roster.Seed)
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(cors.Default())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")

	s.api = api.New(api.Config{
		Engine:     e,
		Store:      s.service.store,
		Feed:       s.service.feed,
		Evidence:   s.service.evidence,
		Songs:      s.service.songs,
		Recognizer: lookup.NoRecognizer{},
		Passphrase: s.c.Passphrase,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := s.pumpCtx

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, "server: feed pump running")
		return s.api.RunFeedPump(ctx)
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.pumpCancel()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()
	s.infra.postgres.Close()
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
