package feed

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"xboard/config"
)

const (
	maxLimit        = 50
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Handler serves the timeline endpoint
type Handler struct {
	service      *TimelineService
	defaultLimit int
}

func NewHandler(service *TimelineService, cfg config.Config) *Handler {
	def := cfg.DefaultLimit
	if def <= 0 {
		def = config.DefaultLimit
	}
	return &Handler{service: service, defaultLimit: def}
}

// NewRouter wires the handler and its middleware into a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), requestID(), corsHeaders(), recovery())
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the timeline routes. Every method is routed to
// Timeline so that it can answer preflights and reject the rest itself.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.Any("/api/timeline", h.Timeline)
	r.Any("/.netlify/functions/timeline", h.Timeline)
	r.GET("/api/test", h.Test)
}

// Timeline handles GET ?accounts=a,b&limit=n
func (h *Handler) Timeline(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	accounts := parseAccounts(c.Query("accounts"))
	if len(accounts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accounts parameter is required"})
		return
	}
	limit := parseLimit(c.Query("limit"), h.defaultLimit)

	resp, status := h.service.GetTimeline(c.Request.Context(), accounts, limit)

	c.Header("Cache-Control", "public, s-maxage=30")
	c.Header("X-Cache", string(status))
	c.JSON(http.StatusOK, resp)
}

// Test is a liveness probe echoing the request line
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Test function working",
		"event":   c.Request.Method,
		"path":    c.Request.URL.Path,
	})
}

// parseAccounts splits a comma separated list, trimming entries and
// dropping empty ones. Duplicates and order are kept.
func parseAccounts(raw string) []string {
	var accounts []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accounts = append(accounts, a)
		}
	}
	return accounts
}

func parseLimit(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		n = def
	}
	return min(n, maxLimit)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func corsHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Content-Type", "application/json")
		c.Next()
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("❌ Timeline API error [%s]: %v", c.GetString(requestIDKey), recovered)
		c.Writer.Header().Del("Cache-Control")
		c.Writer.Header().Del("X-Cache")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "The timeline could not be assembled",
		})
	})
}
