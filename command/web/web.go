package web

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"intervention-stats/connectors/remote"
	"intervention-stats/connectors/source"
	dc "intervention-stats/domain/config"
	"intervention-stats/domain/report"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Run starts the Echo web server exposing the analysis API and an optional SPA
// dashboard.
//
// Usage:
//
//	intervention-stats web [-addr :8080] [-ui ./ui/dist]
//
// Endpoints:
//
//	POST /api/datasets                      multipart "file" -> new session + dataset summary
//	POST /api/datasets/remote               {"url": ...} -> same, downloaded server side
//	GET  /api/sessions/:id/range            ?date_column= -> observed first/last date
//	GET  /api/sessions/:id/rows             full dataset
//	POST /api/sessions/:id/analyze          analysis request -> chart, table, samples, stats
//	GET  /api/sessions/:id/export/:format   xlsx|pdf|csv download of the last analysis
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(cfg *dc.Config, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "http listen address (host:port)")
	uiDir := fs.String("ui", cfg.Server.UIDir, "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Server.UIDir = *uiDir

	srv := NewServer(cfg)
	e := srv.Echo()
	slog.Info("web.start", "addr", *addr, "ui", *uiDir)
	return e.Start(*addr)
}

// Server holds the session registry and the configuration shared by handlers.
type Server struct {
	cfg      *dc.Config
	sessions *registry
	remote   *remote.Client
	// source returns the randomness for one analysis; nil means the global
	// generator.
	source func() report.Source
}

func NewServer(cfg *dc.Config) *Server {
	return &Server{
		cfg:      cfg,
		sessions: newRegistry(cfg.Server.SessionTTL, source.Loader(cfg.Dataset.Sheet)),
		remote:   remote.New(context.Background(), cfg.Remote.Token, cfg.Remote.Timeout),
		source:   func() report.Source { return nil },
	}
}

// Echo builds the router with every route registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("http.request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	if s.cfg.Server.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", s.cfg.Server.MaxUploadMB)))
	}

	// APIs
	e.POST("/api/datasets", s.uploadDataset)
	e.POST("/api/datasets/remote", s.fetchDataset)
	e.GET("/api/sessions/:id/range", s.observedRange)
	e.GET("/api/sessions/:id/rows", s.rows)
	e.POST("/api/sessions/:id/analyze", s.analyze)
	e.GET("/api/sessions/:id/export/:format", s.export)

	// Static UI (optional)
	indexPath := filepath.Join(s.cfg.Server.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		// Serve built assets under /
		e.Static("/", s.cfg.Server.UIDir)
		// Root path -> index.html
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}
