package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"martyrgrave-service/internal/config"
	attendanceCheckin "martyrgrave-service/internal/http-server/handlers/attendance/checkin"
	scheduleCreate "martyrgrave-service/internal/http-server/handlers/scheduledetail/create"
	scheduleDelete "martyrgrave-service/internal/http-server/handlers/scheduledetail/delete"
	scheduleGet "martyrgrave-service/internal/http-server/handlers/scheduledetail/get"
	scheduleList "martyrgrave-service/internal/http-server/handlers/scheduledetail/list"
	slotGet "martyrgrave-service/internal/http-server/handlers/slots/get"
	taskGet "martyrgrave-service/internal/http-server/handlers/tasks/get"
	"martyrgrave-service/internal/lock"
	svc "martyrgrave-service/internal/service"
	"martyrgrave-service/internal/storage/postgres"
	slogpretty "martyrgrave-service/pkg/handlers/slogPretty"
	"martyrgrave-service/pkg/middleware/mwAuth"
	"martyrgrave-service/pkg/middleware/mwLogger"
	"martyrgrave-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	router.Route("/api", func(r chi.Router) {
		// Slot catalog is public reference data.
		r.Get("/Slot/GetAll", slotGet.New(log, service))

		r.Group(func(r chi.Router) {
			r.Use(mwAuth.New())

			r.Get("/ScheduleDetail/GetSchedulesForStaffFiltterDate", scheduleList.New(log, service))
			r.Get("/ScheduleDetail/GetScheduleDetailForStaff", scheduleList.New(log, service))
			r.Get("/ScheduleDetail/GetByScheduleDetailId", scheduleGet.New(log, service))
			r.Post("/ScheduleDetail/CreateScheduleDetailForStaff", scheduleCreate.New(log, service))
			r.Delete("/ScheduleDetail/DeleteScheduleDetail/{id}", scheduleDelete.New(log, service))

			r.Get("/Task/tasks/account/{accountId}", taskGet.New(log, service))

			r.Put("/Attendance/CheckAttendanceForStaff", attendanceCheckin.New(log, service))
		})
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
