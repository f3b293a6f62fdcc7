package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/shiomura/utakai/internal/config"
	"github.com/shiomura/utakai/internal/server"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.TimeOnly,
	})))

	c, err := loadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

	s, err := server.Init(c)
	if err != nil {
		log.Fatalf("Init server failed: %v", err)
	}

	go s.Start()

	<-shutdown
	s.Shutdown()
}

func loadConfig() (server.Config, error) {
	c := defaultConfig()

	// CONFIG_PATH is optional; defaults plus environment cover local runs.
	if err := config.Load(os.Getenv("CONFIG_PATH"), &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}

func defaultConfig() server.Config {
	var c server.Config
	c.HTTP.Port = 8080
	c.Redis.Feed.Addrs = []string{"localhost:6379"}
	c.Redis.Feed.Prefix = "utakai"
	c.Postgres.Store.Addr = "localhost:5432"
	c.Postgres.Store.User = "utakai"
	c.Postgres.Store.Name = "utakai"
	return c
}
