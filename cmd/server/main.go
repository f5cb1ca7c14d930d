package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-token-service/events"
	"github.com/jrsteele09/go-token-service/internal/config"
	"github.com/jrsteele09/go-token-service/metrics"
	"github.com/jrsteele09/go-token-service/server"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/jrsteele09/go-token-service/token/postgresrepo"
	"github.com/jrsteele09/go-token-service/token/redisrepo"
	"github.com/jrsteele09/go-token-service/token/sqliterepo"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	repo, err := newTokenRepo(c)
	if err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}

	broadcaster := events.NewBroadcaster()
	grants, unsubscribe := broadcaster.Subscribe()
	defer unsubscribe()

	metricsCtx, cancelMetrics := context.WithCancel(context.Background())
	defer cancelMetrics()
	go metrics.ObserveGrantEvents(metricsCtx, grants)

	handler, err := server.New(c, repo, broadcaster)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(srv)
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

// newTokenRepo builds the configured storage backend. The default is the
// in-memory store, which keeps nothing across restarts.
func newTokenRepo(c config.Config) (token.Repo, error) {
	settings, err := c.GetStorageSettings()
	if err != nil {
		return nil, err
	}

	switch settings.Backend {
	case "memory":
		return token.NewInMemoryRepo(), nil
	case "sqlite":
		return sqliterepo.New(settings.SQLitePath)
	case "postgres":
		return postgresrepo.New(settings.PostgresDSN)
	case "redis":
		return redisrepo.New(settings.RedisAddr, settings.RedisPassword, settings.RedisDB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
