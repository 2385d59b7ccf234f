package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/polyglot-chat/internal/api"
	"github.com/npezzotti/polyglot-chat/internal/config"
	"github.com/npezzotti/polyglot-chat/internal/registry"
	"github.com/npezzotti/polyglot-chat/internal/server"
	"github.com/npezzotti/polyglot-chat/internal/stats"
	"github.com/npezzotti/polyglot-chat/internal/translate"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr             string
	signingKey       string
	allowedOrigins   stringSliceFlag
	translateURL     string
	translateTimeout time.Duration
	relayMode        string
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded session signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS and websockets")
	flag.StringVar(&translateURL, "translate-url", translate.DefaultBaseURL, "translation service base URL, empty disables translation")
	flag.DurationVar(&translateTimeout, "translate-timeout", translate.DefaultTimeout, "timeout for a single translation request")
	flag.StringVar(&relayMode, "relay-mode", config.RelayModeSender, "chat relay mode: sender or recipient")
	flag.Parse()

	logger := log.New(os.Stderr, "[polyglot-chat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, signingKey, allowedOrigins, translateURL, translateTimeout, relayMode)
	if err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	rooms := registry.New()
	translator := translate.NewGoogleTranslator(cfg.TranslateURL, cfg.TranslateTimeout)

	chatServer, err := server.NewChatServer(logger, rooms, translator, statsUpdater, cfg.RelayMode)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewChatApp(mux, logger, chatServer, rooms, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
