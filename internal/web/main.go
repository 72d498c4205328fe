// Package web assembles the fiber application: middleware, error rendering
// and the routes of every handler.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/config"
	fiberlogger "github.com/runtime-config/runtime-config/internal/logger/adapter/fiber"
	"github.com/runtime-config/runtime-config/internal/metrics"
	"github.com/runtime-config/runtime-config/internal/web/handler"
	"github.com/runtime-config/runtime-config/internal/web/handler/scope"
	"github.com/runtime-config/runtime-config/internal/web/handler/setting"
	"github.com/runtime-config/runtime-config/internal/web/handler/token"
	"github.com/runtime-config/runtime-config/internal/web/handler/user"
)

const (
	// HealthCheckPath is polled by load balancers.
	HealthCheckPath = "/health-check"
	// MetricsPath exposes the prometheus collectors.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the health check for the configured grace period, then
// stops the http server.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	// Graceful shutdown for reverse proxies: the health check fails while the LB removes this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// ErrorHandler renders errors as {"detail": "..."} with the status of their kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	status := apperr.HTTPStatus(err)

	switch status {
	case fiber.StatusUnauthorized:
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	case fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(status).JSON(fiber.Map{"detail": apperr.Detail(err)})
}

// New creates the web service and registers all routes.
func New(deps *handler.Deps) *Service {
	if !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			AppName:       cfg.Title,
			CaseSensitive: true,
			Immutable:     true,
			UnescapePath:  true,
			BodyLimit:     cfg.Webserver.BodyLimit,
			ErrorHandler:  ErrorHandler,
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthCheckPath,
		Actor:         auth.Actor,
	}))

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(metrics.Instrument())

	// Registered ahead of attribution: neither needs an identity.
	app.Get(HealthCheckPath, service.HealthCheck)
	app.Get(MetricsPath, metrics.Handler())

	app.Use(auth.Attribution(deps.Tokens))

	for _, h := range []handler.Service{&token.Handler, &setting.Handler, &scope.Handler, &user.Handler} {
		if err := h.Init(app, deps); err != nil {
			log.Fatal().Err(err).Msg(handler.ErrNilDepsFatalLogMsg)
		}
	}

	return service
}

// HealthCheck reports ok until shutdown begins.
func (s *Service) HealthCheck(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting down"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
