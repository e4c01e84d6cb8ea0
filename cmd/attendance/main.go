package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance_server/server/attendance/app"
	cmnenv "attendance_server/server/common/env"
	"attendance_server/server/common/log"
)

func main() {
	if err := cmnenv.Load(); err != nil {
		log.Warnf("load .env: %v", err)
	}
	opts := log.OptionsFromEnv()
	opts.SentryDSN = cmnenv.String("SENTRY_DSN", "")
	log.Init(opts)
	defer log.Flush(2 * time.Second)

	cfg := app.LoadConfig()
	server, err := app.NewServer(cfg)
	if err != nil {
		log.Exceptionf("initialize server: %v", err)
		log.Flush(2 * time.Second)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("start http server on :%s", cfg.Port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Exceptionf("run http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown server gracefully: %v", err)
	}
}
