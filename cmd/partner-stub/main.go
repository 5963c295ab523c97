package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"site-edge/logging"
	"site-edge/osclient/osstub"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"), "console")

	addr := getenvDefault("STUB_LISTEN_ADDR", ":8081")
	expiresIn, _ := strconv.ParseInt(getenvDefault("STUB_EXPIRES_IN", "3600"), 10, 64)
	stub := osstub.New(osstub.Options{
		ClientID:     getenvDefault("OS_CLIENT_ID", "local"),
		ClientSecret: getenvDefault("OS_CLIENT_SECRET", "local"),
		ExpiresIn:    expiresIn,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: stub, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("partner stub listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
