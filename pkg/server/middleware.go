package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"golang.org/x/time/rate"
)

const clientKey = "client"

func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Cache-Control", "no-store")
			return next(c)
		}
	}
}

// requestLogger attaches a request scoped logger to the request context and logs completion
func requestLogger() echo.MiddlewareFunc {
	logValues := middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := logging.From(c.Request().Context())
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withLogger := func(c echo.Context) error {
			req := c.Request()
			logger := logging.From(req.Context()).With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(logging.With(req.Context(), logger)))
			return next(c)
		}
		return logValues(withLogger)
	}
}

// clientSession binds the browser to its studio and refreshes the auth state from the identity
// provider session on every request
func (s *Server) clientSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id string
		if cookie, err := c.Cookie(ClientCookie); err == nil {
			id = cookie.Value
		}

		ctx := c.Request().Context()
		newID, cl := s.clients.get(id, func() *client {
			auth := identity.New(s.gateway.Auth)
			var opts []studio.Option
			if s.gateway.Archive != nil {
				opts = append(opts, studio.WithArchive(s.gateway.Archive))
			}
			return &client{
				auth:   auth,
				studio: studio.New(ctx, auth, s.builder, s.gateway.Records, opts...),
			}
		})
		if newID != id {
			c.SetCookie(&http.Cookie{
				Name:     ClientCookie,
				Value:    newID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		cl.auth.Refresh(ctx, s.credential(c))
		c.Set(clientKey, cl)
		return next(c)
	}
}

// credential returns the identity provider cookie in Cookie header form
func (s *Server) credential(c echo.Context) string {
	cookie, err := c.Cookie(s.credentialCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Name + "=" + cookie.Value
}

func clientOf(c echo.Context) *client {
	return c.Get(clientKey).(*client)
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter limits requests per client address
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     r,
		burst:    burst,
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, l := range rl.limiters {
		if now.Sub(l.lastSeen) > 5*time.Minute {
			delete(rl.limiters, key)
		}
	}

	if l, ok := rl.limiters[ip]; ok {
		l.lastSeen = now
		return l.limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *rateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.get(c.RealIP()).Allow() {
				retryAfter := 1
				if rl.rate > 0 {
					retryAfter = max(int(1.0/float64(rl.rate)), 1)
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
