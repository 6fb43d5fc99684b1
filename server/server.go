// Package server is the HTTP transport: it authenticates callers, turns text or
// voice into agent input and returns the reply as text and audio.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/skedule/internal/profile"
	"github.com/hrygo/skedule/plugin/ai/speech"
	"github.com/hrygo/skedule/server/auth"
	apperrors "github.com/hrygo/skedule/server/internal/errors"
	"github.com/hrygo/skedule/server/internal/observability"
	"github.com/hrygo/skedule/server/middleware"
)

// Agent answers a caller's message.
type Agent interface {
	Run(ctx context.Context, owner, input string) (string, error)
}

// Options carries the collaborators of the server. Recognizer and Synthesizer
// are nil when speech is disabled.
type Options struct {
	Agent       Agent
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Logger      *slog.Logger
}

// Server is the HTTP server.
type Server struct {
	profile *profile.Profile

	echoServer    *echo.Echo
	agent         Agent
	recognizer    speech.Recognizer
	synthesizer   speech.Synthesizer
	authenticator *auth.Authenticator
	limiter       *middleware.RateLimiter
	metrics       *observability.Metrics
	logger        *slog.Logger
}

const ownerContextKey = "owner"

// NewServer creates a server and registers its routes.
func NewServer(profile *profile.Profile, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		profile:       profile,
		agent:         opts.Agent,
		recognizer:    opts.Recognizer,
		synthesizer:   opts.Synthesizer,
		authenticator: auth.NewAuthenticator(profile.JWTSecret),
		limiter:       middleware.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst),
		metrics:       observability.NewMetrics(),
		logger:        logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(echomw.Recover())
	e.Use(s.requestContext)

	e.GET("/", s.handleRoot)
	e.GET("/healthz", s.handleHealth)
	e.POST("/chat", s.handleChat,
		echomw.BodyLimit(fmt.Sprintf("%dB", maxAudioBytes+1<<20)),
		s.authenticate,
		s.limiter.Middleware(ownerOf, func(echo.Context) error {
			return apperrors.RateLimitExceeded("Bạn gửi yêu cầu quá nhanh. Vui lòng thử lại sau giây lát.")
		}),
	)
	s.echoServer = e

	if profile.JWTSecret == "" {
		logger.Warn("no jwt secret configured, every /chat request will be rejected")
	}
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	address := net.JoinHostPort(s.profile.Addr, strconv.Itoa(s.profile.Port))
	s.logger.Info("server listening", "address", address, "mode", s.profile.Mode, "version", s.profile.Version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echoServer.Start(address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.echoServer.Shutdown(ctx)
}

// requestContext attaches a RequestContext to every request and logs its outcome.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		reqCtx := observability.NewRequestContext(s.logger, req.Header.Get(echo.HeaderXRequestID))
		c.Response().Header().Set(echo.HeaderXRequestID, reqCtx.RequestID)
		c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}
		reqCtx.Info("request handled",
			slog.String("method", req.Method),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().Status),
			slog.Int64(observability.LogFieldDuration, reqCtx.Duration().Milliseconds()),
		)
		return nil
	}
}

// authenticate resolves the bearer credential to the caller identity.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Thiếu token xác thực.")
		}
		owner, err := s.authenticator.Authenticate(token)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Token không hợp lệ hoặc đã hết hạn.")
		}
		c.Set(ownerContextKey, owner)
		if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
			reqCtx.UserID = owner
		}
		return next(c)
	}
}

func ownerOf(c echo.Context) string {
	owner, _ := c.Get(ownerContextKey).(string)
	return owner
}

type errorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		appErr  *apperrors.AppError
		httpErr *echo.HTTPError
		resp    errorResponse
		status  int
	)
	switch {
	case errors.As(err, &appErr):
		status = appErr.HTTPStatus()
		resp = errorResponse{Code: appErr.Code, Message: appErr.Message}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		resp = errorResponse{Code: apperrors.CodeForStatus(status), Message: fmt.Sprint(httpErr.Message)}
	default:
		status = http.StatusInternalServerError
		resp = errorResponse{Code: apperrors.ErrCodeInternal, Message: "Lỗi máy chủ nội bộ."}
	}

	if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
		attrs := []slog.Attr{slog.String(observability.LogFieldErrorCode, string(resp.Code)), slog.Int("status", status)}
		if status >= http.StatusInternalServerError {
			reqCtx.Error("request failed", err, attrs...)
		} else {
			reqCtx.Warn("request rejected", append(attrs, slog.String("error", err.Error()))...)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Skedule AI Voice Agent is running!"})
}

type healthResponse struct {
	Status  string                         `json:"status"`
	Version string                         `json:"version"`
	Speech  bool                           `json:"speech"`
	Metrics *observability.MetricsSnapshot `json:"metrics"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.profile.Version,
		Speech:  s.recognizer != nil,
		Metrics: s.metrics.Snapshot(),
	})
}
