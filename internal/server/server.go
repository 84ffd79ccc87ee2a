// Package server exposes the nesting engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/piwi3910/FoamNest/internal/engine"
	"github.com/piwi3910/FoamNest/internal/importer"
	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps every request body. Gin's MaxMultipartMemory is only
// the threshold above which uploads spill to temporary files.
const maxBodyBytes = 32 << 20

// maxPartInstances caps the total part quantity of one nesting request.
const maxPartInstances = 10000

// Server routes HTTP requests to the nester and the loader.
type Server struct {
	nester  *engine.Nester
	loader  *importer.Loader
	catalog *model.FoamCatalog
	log     *logrus.Logger
	router  *gin.Engine
	maxBody int64
}

// New builds a server with all routes registered. A nil logger uses the
// logrus standard logger. Loaders without a size cap get one of the
// request body limit.
func New(nester *engine.Nester, loader *importer.Loader, catalog *model.FoamCatalog, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if catalog == nil {
		c := model.DefaultFoamCatalog()
		catalog = &c
	}
	s := &Server{
		nester:  nester,
		loader:  loader,
		catalog: catalog,
		log:     logger,
		maxBody: maxBodyBytes,
	}
	if loader != nil && loader.MaxBytes <= 0 {
		loader.MaxBytes = maxBodyBytes
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.limitBody())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", s.handleHealth)
	api := r.Group("/api")
	api.GET("/foam-types", s.handleFoamTypes)
	api.GET("/profiles", s.handleProfiles)
	api.POST("/nest/rectangles", s.handleNestRectangles)
	api.POST("/nest/polygons", s.handleNestPolygons)
	api.POST("/compare", s.handleCompare)
	api.POST("/import", s.handleImport)
	api.POST("/orders", s.handleOrders)

	s.router = r
	return s
}

// Handler returns the gin engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// limitBody makes reads past s.maxBody fail with *http.MaxBytesError.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request")
		}
	}
}
