package api

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veridex/faceline/internal/db"
	"github.com/veridex/faceline/internal/engine"
)

// APIHandler holds the collaborators every session-operation handler needs:
// the engine itself, the persistence adapter (nil if no DATABASE_URL was
// configured), and the websocket hub that mirrors engine.OnEvent out to
// connected clients.
type APIHandler struct {
	engine  *engine.Engine
	dbStore *db.PostgresStore
	wsHub   *Hub
}

// SetupRouter wires the public and protected route groups onto a fresh Gin
// engine. dbStore may be nil (snapshot/replay persistence becomes a no-op
// and audit listing returns 503); wsHub must not be nil.
func SetupRouter(eng *engine.Engine, dbStore *db.PostgresStore, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{engine: eng, dbStore: dbStore, wsHub: wsHub}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewRateLimiter(60, 10).Middleware())
	{
		auth.POST("/banks", handler.handleLoadBank)

		sessions := auth.Group("/sessions")
		{
			sessions.POST("", handler.handleCreateSession)
			sessions.GET("/:id", handler.handleGetSession)
			sessions.POST("/:id/picks", handler.handleSetPicks)
			sessions.GET("/:id/next", handler.handleNextQuestion)
			sessions.POST("/:id/answers", handler.handleSubmitAnswer)
			sessions.POST("/:id/finalize", handler.handleFinalize)
			sessions.POST("/:id/abort", handler.handleAbort)
			sessions.POST("/:id/pause", handler.handlePause)
			sessions.POST("/:id/resume", handler.handleResume)
		}

		replayGroup := auth.Group("/replay")
		{
			replayGroup.POST("", handler.handleReplay)
			replayGroup.GET("/audits", handler.handleListReplayAudits)
		}
	}

	return r
}

// handleHealth reports engine status for service discovery / liveness probes.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"engine":      "faceline assessment engine",
		"dbConnected": h.dbStore != nil,
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func logSaveSnapshotFailure(err error) {
	log.Printf("failed to persist final snapshot: %v", err)
}

func logSaveReplayFailure(err error) {
	log.Printf("failed to persist replay audit: %v", err)
}
