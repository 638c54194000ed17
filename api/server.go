package api

import (
	// Go Internal Packages
	"context"
	"errors"
	"net/http"
	"time"

	// Local Packages
	gateway "enrollpay/gateway"
	models "enrollpay/models"
	checkout "enrollpay/services/checkout"
	family "enrollpay/services/family"
	reconcile "enrollpay/services/reconcile"

	// External Packages
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Checkout interface {
	Begin(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, reference string, opts ...reconcile.Option) (reconcile.Outcome, error)
}

// Publisher hands a verified webhook event to the materializer, directly or
// through the payment events topic.
type Publisher interface {
	Publish(ctx context.Context, evt models.PaymentEvent) error
}

type Deps struct {
	Logger         *zap.Logger
	Checkout       Checkout
	Reconciler     Reconciler
	Sessions       *family.Sessions
	Gateways       map[string]gateway.Gateway
	Publisher      Publisher
	Metrics        http.Handler
	AllowedOrigins []string
	VerifyTimeout  time.Duration
}

// Server is the enrollment payment API
type Server struct {
	Deps
	router *gin.Engine
}

// NewServer wires the routes
func NewServer(deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{Deps: deps, router: router}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	enrollments := router.Group("/enrollments")
	{
		enrollments.POST("/drafts", s.handleAddSibling)
		enrollments.POST("/checkout", s.handleCheckout)
	}

	payments := router.Group("/payments")
	{
		payments.GET("/verify", s.handleVerify)
		payments.GET("/:reference/status", s.handleStatus)
	}

	router.POST("/webhooks/:provider", s.handleWebhook)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx ends, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
