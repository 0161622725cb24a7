package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/feedback"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

type (
	// ServerDeps wraps all the dependencies needed by the Server.
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		SessionSvc     *session.Service
		AttendanceSvc  *attendance.Service
		FeedbackSvc    *feedback.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.HideBanner = true
	s.app.Debug = conf.Debug

	s.app.GET("/health", health(conf))

	v1 := s.app.Group("/v1/meet")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	opt := optionalAuth(conf)

	registerSessionAPI(v1, jwt, opt, s.deps.SessionSvc, s.deps.Validate)
	registerAttendanceAPI(v1, jwt, opt, s.deps.AttendanceSvc)
	registerFeedbackAPI(v1, jwt, opt, s.deps.FeedbackSvc)
}

func (s *server) Start() {
	s.errCh <- s.app.Start(s.deps.Conf.Server.APIAddr)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown sends a SIGTERM down the shutdown channel to trigger a graceful shutdown.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{
			"status":    "healthy",
			"service":   conf.AppName,
			"version":   conf.Build,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
