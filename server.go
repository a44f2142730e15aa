package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/middlewares"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer = otel.Tracer("workshop-backend")

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	limit  int64
	window time.Duration
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server first; until the DB is ready, app endpoints return 503.
	r := newRouter(logger)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can lock tables; allow running it as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func newRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// redis is optional; only the database gates readiness
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// deny all when not configured
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(tracingMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func registerRoutes(r *gin.Engine) {
	r.POST("/logout", logoutHandler())

	r.POST("/allocations", allocateInventoryHandler())

	r.POST("/jobsheets", createJobSheetHandler())
	r.GET("/jobsheets", listJobSheetsHandler())
	r.GET("/jobsheets/:id", getJobSheetHandler())
	r.PUT("/jobsheets/:id", updateJobSheetHandler())
	r.GET("/jobsheets/:id/totals", getJobSheetTotalsHandler())
	r.GET("/jobsheets/:id/allocations", listAllocationsHandler())
	r.GET("/jobsheets/:id/payments", listPaymentsHandler())

	r.POST("/jobsheets/items", addJobSheetItemHandler())
	r.PUT("/jobsheets/items/:id", updateJobSheetItemHandler())
	r.DELETE("/jobsheets/items/:id", deleteJobSheetItemHandler())

	r.POST("/labor", addLaborEntryHandler())
	r.PUT("/labor/:id", updateLaborEntryHandler())
	r.DELETE("/labor/:id", deleteLaborEntryHandler())

	r.POST("/jobsheets/payments", addPaymentHandler())
	r.PUT("/jobsheets/payments/:id", updatePaymentHandler())
	r.DELETE("/jobsheets/payments/:id", deletePaymentHandler())

	r.POST("/customers", createCustomerHandler())
	r.GET("/customers", listCustomersHandler())
	r.GET("/customers/:id", getCustomerHandler())
	r.PUT("/customers/:id", updateCustomerHandler())

	r.POST("/vehicles", createVehicleHandler())
	r.GET("/vehicles", listVehiclesHandler())
	r.GET("/vehicles/:id", getVehicleHandler())
	r.PUT("/vehicles/:id", updateVehicleHandler())

	r.POST("/products", createProductHandler())
	r.GET("/products", listProductsHandler())
	r.GET("/products/:id", getProductHandler())
	r.PUT("/products/:id", updateProductHandler())

	r.POST("/suppliers", createSupplierHandler())
	r.GET("/suppliers", listSuppliersHandler())

	r.POST("/supplier-invoices", createSupplierInvoiceHandler())
	r.GET("/supplier-invoices", listSupplierInvoicesHandler())
	r.GET("/supplier-invoices/:id", getSupplierInvoiceHandler())
	r.GET("/stock", listAvailableStockHandler())

	r.GET("/reports/revenue", revenueReportHandler())
	r.GET("/reports/revenue/export", exportRevenueReportHandler())
}

// tracingMiddleware opens a span per request, named after the route.
func tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		spanName := c.FullPath()
		if spanName == "" {
			spanName = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+spanName, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			ctx := c.Request.Context()
			cid, _ := utils.GetCorrelationIdFromContext(ctx)
			fields := logrus.Fields{
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}
			if userId, ok := utils.GetUserIdFromContext(ctx); ok {
				fields["user_id"] = userId
			}
			if role, ok := utils.GetUserRoleFromContext(ctx); ok {
				fields["role"] = role
			}
			logger.WithFields(fields).Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits. Without redis it lets everything through.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := config.GetRedisDB()
	if client == nil {
		c.Next()
		return
	}
	key := "ratelimit:" + c.ClientIP()

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
