package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-journal-auth/internal/config"
	"github.com/jrsteele09/go-journal-auth/server"
	"github.com/jrsteele09/go-journal-auth/session"
)

const startupTimeout = 10 * time.Second

func main() {
	config.LoadEnvFile()
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	initialiseLogger(c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	sys, err := server.InitialiseSystem(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := sys.Close(); err != nil {
			log.Err(err).Msg("Failed to close storage")
		}
	}()

	registry, err := session.NewRegistry(sys.Storage, sys.Directory,
		session.WithMaxClients(c.GetSessionCacheSize()),
		session.WithStoreTTL(c.GetSessionCacheTTL()),
	)
	if err != nil {
		return err
	}

	var options []server.Option
	if sys.HealthCheck != nil {
		options = append(options, server.WithHealthCheck(sys.HealthCheck))
	}
	handler, err := server.New(c, registry, options...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func initialiseLogger(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
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
