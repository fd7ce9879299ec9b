package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sheetbase/drive-v1/internal/server/auth"
	"github.com/sheetbase/drive-v1/internal/server/config"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
// decoder may be nil, in which case every caller is anonymous. The file routes
// live under cfg.Endpoint(), skip what cfg disables, and run mws after the
// rate limiter. Background work stops when ctx is cancelled.
func SetupRouter(ctx context.Context, handler *Handler, decoder auth.Decoder, cfg *config.Config, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "If-None-Match"},
	}))
	e.Use(Identity(decoder))
	e.Use(RequestLogger())

	// Rate limiter on mutating endpoints only
	limiter := NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	e.GET("/health", handler.HandleHealth)

	path := "/" + cfg.Endpoint()
	routes := []struct {
		method  string
		handler echo.HandlerFunc
		limited bool
	}{
		{http.MethodGet, handler.HandleGet, false},
		{http.MethodPut, handler.HandleUpload, true},
		{http.MethodPost, handler.HandleUpdate, true},
		{http.MethodDelete, handler.HandleRemove, true},
	}
	for _, r := range routes {
		if !cfg.RouteEnabled(r.method) {
			continue
		}
		var chain []echo.MiddlewareFunc
		if r.limited {
			chain = append(chain, limiter.Middleware())
		}
		chain = append(chain, mws...)
		e.Add(r.method, path, r.handler, chain...)
	}

	// Download
	e.GET("/d/:id", handler.HandleDownload)

	return e
}
