package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/danmuck/lina/internal/client"
	"github.com/danmuck/lina/internal/config"
	"github.com/danmuck/lina/internal/observability"
	"github.com/danmuck/lina/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 5 * time.Second

// Gateway fronts a LiNa store with a small HTTP object API.
type Gateway struct {
	Name     string
	Addr     string
	Appeared time.Time

	client client.Config
	router *gin.Engine
	logger zerolog.Logger
}

func New(cfg config.GatewayConfig) *Gateway {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "PUT", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	g := &Gateway{
		Name:     cfg.Name,
		Addr:     cfg.Addr,
		Appeared: time.Now(),
		client:   cfg.Client,
		router:   r,
		logger:   log.With().Str("component", "lina.gateway").Str("upstream", cfg.Client.Address()).Logger(),
	}
	g.registerRoutes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Serve blocks until ctx is done or the listener fails.
func (g *Gateway) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: g.Addr, Handler: g.router}
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info().Str("addr", g.Addr).Msg("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	g.logger.Info().Msg("gateway stopped")
	return nil
}

func (g *Gateway) registerRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(g.Appeared).String(),
			"service": g.Name,
		})
	})
	g.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":    true,
			"upstream": g.client.Address(),
			"service":  g.Name,
		})
	})
	g.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	objects := g.router.Group("/objects")
	objects.GET("/:name", g.getObject)
	objects.PUT("/:name", g.putObject)
	objects.DELETE("/:name", g.deleteObject)
}

func (g *Gateway) getObject(c *gin.Context) {
	name := c.Param("name")
	lc, ok := g.newClient(c)
	if !ok {
		return
	}
	body, err := lc.Download(c.Request.Context(), name)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType(name), body)
}

func (g *Gateway) putObject(c *gin.Context) {
	name := c.Param("name")
	limit := int64(math.MaxUint32)
	if ceiling := g.client.Limits.MaxBodyBytes; ceiling > 0 && ceiling < math.MaxUint32 {
		limit = int64(ceiling)
	}
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var opts protocol.Flags
	if queryBool(c, "cover") {
		opts |= protocol.FlagCover
	}
	if queryBool(c, "compress") {
		opts |= protocol.FlagCompress
	}

	lc, ok := g.newClient(c)
	if !ok {
		return
	}
	if err := lc.Upload(c.Request.Context(), name, payload, opts); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "name": name, "bytes": len(payload)})
}

func (g *Gateway) deleteObject(c *gin.Context) {
	name := c.Param("name")
	lc, ok := g.newClient(c)
	if !ok {
		return
	}
	if err := lc.Delete(c.Request.Context(), name); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "name": name})
}

// newClient gives each request its own handle; a Client carries one
// transaction at a time.
func (g *Gateway) newClient(c *gin.Context) (*client.Client, bool) {
	lc, err := client.New(g.client)
	if err != nil {
		g.fail(c, err)
		return nil, false
	}
	return lc, true
}

func (g *Gateway) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error(), "kind": client.KindName(err)}
	if status, ok := client.StatusOf(err); ok {
		body["status"] = status.String()
	}
	c.JSON(HTTPStatus(err), body)
}

// HTTPStatus maps a client failure onto the gateway's response code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := client.StatusOf(err); ok {
		switch status {
		case protocol.StatusFileNotFound:
			return http.StatusNotFound
		case protocol.StatusFileNameInvalid, protocol.StatusInvalidRequest:
			return http.StatusBadRequest
		default:
			return http.StatusBadGateway
		}
	}
	switch {
	case errors.Is(err, client.ErrNameTooLong):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, client.ErrChecksumMismatch),
		errors.Is(err, client.ErrIncompleteBody),
		errors.Is(err, client.ErrMalformedHeader),
		errors.Is(err, client.ErrBodyTooLarge):
		return http.StatusBadGateway
	case errors.Is(err, client.ErrConnectFailed),
		errors.Is(err, client.ErrSendFailed),
		errors.Is(err, client.ErrPartialSend),
		errors.Is(err, client.ErrRecvFailed),
		errors.Is(err, client.ErrConnectionClosed),
		errors.Is(err, client.ErrNotConnected):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
