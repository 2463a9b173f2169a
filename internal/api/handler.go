package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ppob-service/internal/service"
	"ppob-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	parser    service.IntentParser
	resolver  *service.Resolver
	lifecycle *service.LifecycleManager
	catalog   service.CatalogStore
	txStore   service.TransactionStore
	stats     *service.StatsService
	syncer    *service.CatalogSyncer
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	parser service.IntentParser,
	resolver *service.Resolver,
	lifecycle *service.LifecycleManager,
	catalog service.CatalogStore,
	txStore service.TransactionStore,
	stats *service.StatsService,
	syncer *service.CatalogSyncer,
) *Handler {
	return &Handler{
		parser:    parser,
		resolver:  resolver,
		lifecycle: lifecycle,
		catalog:   catalog,
		txStore:   txStore,
		stats:     stats,
		syncer:    syncer,
		logger:    util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.GET("/products/:category", h.listProductsByCategory)

		api.POST("/chat/process", h.processChat)

		api.POST("/transactions", h.createTransaction)
		api.GET("/transactions/:id", h.getTransaction)
		api.GET("/transactions/check/:targetNumber", h.checkTransactions)

		api.POST("/webhook/paydisini", h.paymentWebhook)

		admin := api.Group("/admin")
		{
			admin.GET("/stats", h.adminStats)
			admin.GET("/transactions", h.adminTransactions)
			admin.POST("/sync-products", h.syncProducts)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listProducts returns all active products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.GetProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// listProductsByCategory returns active products in one category
func (h *Handler) listProductsByCategory(c *gin.Context) {
	category := c.Param("category")

	products, err := h.catalog.GetProductsByCategory(c.Request.Context(), category)
	if err != nil {
		h.logger.Error("Failed to list products", zap.String("category", category), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

type chatRequest struct {
	Command string `json:"command" binding:"required"`
}

// processChat parses a natural-language command and resolves it. Parser
// failures degrade to the ambiguous-command answer so the chat surface
// always gets a conversational reply.
func (h *Handler) processChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Command is required"})
		return
	}

	ctx := c.Request.Context()
	intent, err := h.parser.Parse(ctx, req.Command)
	if err != nil {
		h.logger.Warn("Intent parsing failed", zap.String("command", req.Command), zap.Error(err))
		c.JSON(http.StatusOK, &service.ChatResult{
			Success: false,
			Message: "Maaf, perintah tidak dapat diproses saat ini. Silakan coba lagi.",
		})
		return
	}

	result := h.resolver.Resolve(ctx, intent)
	c.JSON(http.StatusOK, result)
}

// createTransaction persists a confirmed order and opens a payment session
func (h *Handler) createTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	tx, err := h.lifecycle.CreateTransaction(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create transaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"paymentUrl":  tx.PaymentURL,
		"transaction": tx,
	})
}

// getTransaction returns one transaction by ID
func (h *Handler) getTransaction(c *gin.Context) {
	id := c.Param("id")

	tx, err := h.txStore.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load transaction", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transaction"})
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// checkTransactions returns transaction history for a target number
func (h *Handler) checkTransactions(c *gin.Context) {
	targetNumber := c.Param("targetNumber")

	transactions, err := h.txStore.GetTransactionsByTargetNumber(c.Request.Context(), targetNumber)
	if err != nil {
		h.logger.Error("Failed to load transactions", zap.String("target_number", targetNumber), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

type webhookRequest struct {
	UniqueCode string `form:"unique_code" json:"unique_code" binding:"required"`
	Status     string `form:"status" json:"status" binding:"required"`
}

// paymentWebhook applies a gateway payment notification. 404 for unknown
// references tells the gateway not to retry; 5xx triggers re-delivery.
func (h *Handler) paymentWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unique_code and status are required"})
		return
	}

	err := h.lifecycle.HandlePaymentWebhook(c.Request.Context(), req.UniqueCode, req.Status)
	if errors.Is(err, service.ErrTransactionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		h.logger.Error("Webhook processing failed",
			zap.String("gateway_ref", req.UniqueCode),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// adminStats returns today's dashboard aggregates
func (h *Handler) adminStats(c *gin.Context) {
	stats, err := h.stats.ComputeDailyStats(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// adminTransactions returns the most recent transactions
func (h *Handler) adminTransactions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	transactions, err := h.txStore.GetRecentTransactions(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// syncProducts triggers an on-demand catalog sync
func (h *Handler) syncProducts(c *gin.Context) {
	count, err := h.syncer.Sync(c.Request.Context())
	if err != nil {
		h.logger.Error("Catalog sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Product sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
