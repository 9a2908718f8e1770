package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

func (app *application) serve(port string) error {
	srv := &http.Server{
		Addr:    port,
		Handler: app.routes(),
		// multipart uploads of a featured image need more than the usual read budget
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	shutdownError := make(chan error, 1)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", slog.String("signal", s.String()))

		// Stop consuming first so unacknowledged notifications go back to the queue.
		if app.mailService != nil {
			app.mailService.Close()
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server",
		slog.String("port", port),
		slog.String("env", app.config.Environment),
		slog.String("backend", app.pb.BaseURL()),
		slog.Bool("tls", app.useTLS()),
	)

	err := app.listen(srv)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownError; err != nil {
		return err
	}

	app.logger.Info("stopped server", slog.String("addr", srv.Addr))

	return nil
}

func (app *application) useTLS() bool {
	return app.config.Environment == "production" && app.config.TLSCertFile != ""
}

func (app *application) listen(srv *http.Server) error {
	if app.useTLS() {
		return srv.ListenAndServeTLS(app.config.TLSCertFile, app.config.TLSKeyFile)
	}
	return srv.ListenAndServe()
}
