// Package server exposes the dashboard pages over HTTP with echo.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/spektr-org/painel/config"
	"github.com/spektr-org/painel/logger"
	"github.com/spektr-org/painel/visits"
)

// errNotLoaded is served before the first load attempt finishes.
var errNotLoaded = NewCodedError(http.StatusServiceUnavailable, "dados ainda não carregados", nil)

type APIService struct {
	router *echo.Echo
	cfg    *config.Config

	mu      sync.RWMutex
	dataset *visits.Dataset
	loadErr error
}

func (svc *APIService) Serve() {
	logger.Infof(context.Background(), "🚀 listening on %s", svc.cfg.Server.Addr)
	err := svc.router.Start(svc.cfg.Server.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}
	logger.Fatal(context.Background(), err)
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

// Handler returns the router for use with httptest.
func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(cfg *config.Config) (*APIService, error) {
	svc := &APIService{router: echo.New(), cfg: cfg}

	svc.router.HideBanner = true
	svc.router.HidePort = true
	svc.router.Logger.SetLevel(log.OFF)
	svc.router.Validator = NewValidator()
	svc.router.JSONSerializer = NewSonicSerializer()
	svc.router.HTTPErrorHandler = httpErrorHandler

	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logger.With(c.Request().Context(), zap.String("request_id", id))
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	svc.router.Use(requestLogger())
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  []string{echo.GET, echo.POST},
		AllowHeaders:  []string{echo.HeaderContentType},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))

	svc.router.GET("/health", svc.Health)

	api := svc.router.Group("/api/v1")
	api.GET("/pages", svc.ListPages)
	api.GET("/schema", svc.GetSchema)
	api.GET("/subareas", svc.ListSubareas)
	api.POST("/dataset/reload", svc.ReloadDataset)

	pages := api.Group("/pages/:slug")
	pages.GET("/options", svc.GetOptions)
	pages.GET("/dashboard", svc.GetDashboard)
	pages.GET("/preview", svc.GetPreview)
	pages.GET("/export.csv", svc.ExportCSV)
	pages.GET("/export.xlsx", svc.ExportXLSX)
	pages.GET("/charts/:chart", svc.GetChartPNG)
	pages.GET("/report.pdf", svc.GetReport)

	return svc, nil
}

// ============================================================================
// DATASET STATE
// ============================================================================

// LoadDataset (re)loads the configured file and swaps it in. A failed load
// replaces the dataset with the error, which every data endpoint then serves.
func (svc *APIService) LoadDataset(ctx context.Context) error {
	var opts []visits.LoadOption
	if svc.cfg.Data.Sheet != "" {
		opts = append(opts, visits.WithSheet(svc.cfg.Data.Sheet))
	}
	ds, err := visits.LoadWithRetry(ctx, svc.cfg.Data.Path, svc.cfg.Data.LoadRetries, svc.cfg.Data.RetryDelay, opts...)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.dataset, svc.loadErr = ds, err
	if err != nil {
		logger.Errorf(ctx, "❌ dataset %s: %v", svc.cfg.Data.Path, err)
	}
	return err
}

// SetDataset installs an already loaded dataset.
func (svc *APIService) SetDataset(ds *visits.Dataset) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.dataset, svc.loadErr = ds, nil
}

func (svc *APIService) current() (*visits.Dataset, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if svc.loadErr != nil {
		return nil, svc.loadErr
	}
	if svc.dataset == nil {
		return nil, errNotLoaded
	}
	return svc.dataset, nil
}
