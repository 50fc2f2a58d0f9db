package api

import (
	"net/http"
	"strconv"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/pipeline"
	"pricewatch/internal/service"
	"pricewatch/internal/store"
	"pricewatch/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	validator *pipeline.Validator
	ingest    *service.IngestService
	analytics *service.AnalyticsService
	directory *service.RetailerDirectory
	store     *store.Store

	historyDays     int
	changeThreshold float64
}

// NewHandler creates a new HTTP handler
func NewHandler(
	validator *pipeline.Validator,
	ingest *service.IngestService,
	analytics *service.AnalyticsService,
	directory *service.RetailerDirectory,
	st *store.Store,
	historyDays int,
	changeThreshold float64,
) *Handler {
	return &Handler{
		validator:       validator,
		ingest:          ingest,
		analytics:       analytics,
		directory:       directory,
		store:           st,
		historyDays:     historyDays,
		changeThreshold: changeThreshold,
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

	v1 := router.Group("/api/v1")
	{
		v1.POST("/items", h.ingestItem)
		v1.GET("/products/:id/history", h.getPriceHistory)
		v1.GET("/products/:id/changes", h.getPriceChanges)
		v1.GET("/products/:id/analytics", h.getPriceAnalytics)
		v1.GET("/products/:id/competitors", h.getCompetitorPrices)
		v1.GET("/retailers", h.listRetailers)
		v1.GET("/retailers/:id/performance", h.getRetailerPerformance)
		v1.GET("/keywords/unconfigured", h.getUnconfiguredKeywords)
		v1.PUT("/keywords/:id", h.configureKeyword)
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

// IngestItemRequest is a directly-posted scraped item
type IngestItemRequest struct {
	Retailer string       `json:"retailer" binding:"required"`
	Item     *models.Item `json:"item" binding:"required"`
}

// ingestItem handles direct item ingestion (bypassing the intake topic)
func (h *Handler) ingestItem(c *gin.Context) {
	var req IngestItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	retailerID, err := h.directory.ResolveID(c.Request.Context(), req.Retailer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unknown retailer",
			"details": err.Error(),
		})
		return
	}

	if err := h.validator.Process(req.Item); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Item rejected",
			"details": err.Error(),
		})
		return
	}

	saved, err := h.ingest.ProcessItem(c.Request.Context(), req.Item, retailerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to ingest item",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"retailer_product_id": saved.ID,
		"url":                 saved.URL,
	})
}

// getPriceHistory returns the trailing price series for a product
func (h *Handler) getPriceHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	history, err := h.analytics.GetPriceHistory(c.Request.Context(), id, h.queryDays(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load price history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// getPriceChanges returns significant price moves for a product
func (h *Handler) getPriceChanges(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	threshold := h.changeThreshold
	if t := c.Query("threshold"); t != "" {
		if parsed, err := strconv.ParseFloat(t, 64); err == nil && parsed > 0 {
			threshold = parsed
		}
	}

	changes, err := h.analytics.GetPriceChanges(c.Request.Context(), id, h.queryDays(c), threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to detect price changes",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

// getPriceAnalytics returns the aggregate price read model
func (h *Handler) getPriceAnalytics(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	analytics, err := h.analytics.GetPriceAnalytics(c.Request.Context(), id, h.queryDays(c), h.changeThreshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute analytics",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// getCompetitorPrices returns the latest price per retailer for a
// product identity
func (h *Handler) getCompetitorPrices(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	prices, err := h.analytics.GetCompetitorPrices(c.Request.Context(), id, h.queryDays(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load competitor prices",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"competitor_prices": prices})
}

// listRetailers returns every tracked retailer
func (h *Handler) listRetailers(c *gin.Context) {
	retailers, err := h.store.GetRetailers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load retailers",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retailers": retailers})
}

// getRetailerPerformance returns scrape health for a retailer
func (h *Handler) getRetailerPerformance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	performance, err := h.analytics.GetRetailerPerformance(c.Request.Context(), id, h.queryDays(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute retailer performance",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, performance)
}

// getUnconfiguredKeywords lists keywords awaiting manual classification
func (h *Handler) getUnconfiguredKeywords(c *gin.Context) {
	keywords, err := h.store.GetUnconfiguredKeywords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load keywords",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

// ConfigureKeywordRequest is the manual keyword classification payload
type ConfigureKeywordRequest struct {
	IndicatesInStock *bool `json:"indicates_in_stock" binding:"required"`
}

// configureKeyword records a keyword's in-stock classification
func (h *Handler) configureKeyword(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ConfigureKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	keyword, err := h.store.ConfigureKeyword(c.Request.Context(), id, *req.IndicatesInStock)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Keyword not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, keyword)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) queryDays(c *gin.Context) int {
	days := h.historyDays
	if d := c.Query("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			days = parsed
		}
	}
	return days
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
