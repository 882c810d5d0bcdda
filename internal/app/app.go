// Package app wires the activities service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"school-activities/internal/activities"
	"school-activities/internal/api"
	commonaws "school-activities/internal/common/aws"
	"school-activities/internal/common/config"
	"school-activities/internal/common/database"
	"school-activities/internal/common/logger"
	"school-activities/internal/common/metrics"
	"school-activities/internal/common/observability"
	"school-activities/internal/notify"
	"school-activities/pkg/registry"

	"github.com/labstack/echo/v4"
)

const (
	connectRetries    = 10
	connectRetryDelay = 2 * time.Second
)

type App struct {
	Config     *config.Config
	Store      *activities.Store
	Dispatcher *notify.Dispatcher
	Echo       *echo.Echo

	log     logger.Logger
	obs     *observability.Observability
	closers []func() error
}

// New seeds the registry, connects the enabled notifiers and builds the router.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability) (*App, error) {
	a := &App{Config: cfg, log: log, obs: obs}

	reg, err := loadRegistry(cfg.Registry.SeedPath)
	if err != nil {
		return nil, err
	}
	for _, name := range registry.OverCapacity(reg) {
		log.Warn("seeded roster exceeds capacity", map[string]interface{}{"activity": name})
	}

	a.Store, err = activities.NewStore(
		activities.FromRegistry(reg),
		activities.WithCapacityEnforcement(cfg.Registry.EnforceCapacity),
		activities.WithRosterObserver(metrics.SetParticipants),
	)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	log.Info("activity registry loaded", map[string]interface{}{
		"activities":      len(a.Store.Names()),
		"enforceCapacity": a.Store.CapacityEnforced(),
	})

	notifiers, readiness, err := a.buildNotifiers(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.Dispatcher = notify.NewDispatcher(config.GetDuration(cfg.Notifications.Timeout), log, notifiers...)
	log.Info("roster notifiers configured", map[string]interface{}{"notifiers": a.Dispatcher.Names()})

	handler := api.NewHandler(a.Store, a.Dispatcher, log)
	a.Echo = api.NewRouter(handler, log, obs, api.RouterOptions{
		StaticDir:       cfg.Server.StaticDir,
		AllowOrigins:    cfg.Server.AllowOrigins,
		ReadinessChecks: readiness,
	})
	a.Echo.Server.ReadTimeout = config.GetDuration(cfg.Server.ReadTimeout)
	a.Echo.Server.WriteTimeout = config.GetDuration(cfg.Server.WriteTimeout)

	return a, nil
}

func (a *App) buildNotifiers(ctx context.Context) ([]notify.Notifier, map[string]api.ReadinessCheck, error) {
	cfg := a.Config
	var notifiers []notify.Notifier
	readiness := map[string]api.ReadinessCheck{}

	if cfg.Notifications.Redis.Enabled {
		pubsub := database.NewRosterPubSub(cfg.Database.Redis)
		a.closers = append(a.closers, pubsub.Close)

		err := retryWithBackoff(ctx, func() error {
			return pubsub.Ping(ctx)
		}, connectRetries, connectRetryDelay, a.log, "Redis connection")
		if err != nil {
			return nil, nil, err
		}

		channel := cfg.Notifications.Redis.Channel
		fields := map[string]interface{}{"address": cfg.Database.Redis.Address, "channel": channel}
		if n, err := pubsub.Subscribers(ctx, channel); err == nil {
			fields["subscribers"] = n
		}
		a.log.Info("Redis connected successfully", fields)

		notifiers = append(notifiers, notify.NewRedisPublisher(pubsub.Client, channel))
		readiness["redis"] = pubsub.Ping
	}

	if cfg.Notifications.AWSEnabled() {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Notifications.SNS.Enabled {
			notifiers = append(notifiers, notify.NewSNSPublisher(commonaws.NewSNSClient(awsCfg), cfg.Notifications.SNS.TopicARN))
		}
		if cfg.Notifications.Email.Enabled {
			notifiers = append(notifiers, notify.NewEmailNotifier(commonaws.NewSESClient(awsCfg), cfg.Notifications.Email.FromEmail))
		}
	}

	return notifiers, readiness, nil
}

// Start serves HTTP until Shutdown is called.
func (a *App) Start() error {
	a.log.Info("HTTP server listening", map[string]interface{}{"address": a.Config.Server.Address})
	if err := a.Echo.Start(a.Config.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadRegistry(path)
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
