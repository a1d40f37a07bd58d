package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	db      *sqlx.DB
	version string
}

func NewHandler(db *sqlx.DB, version string) *Handler {
	return &Handler{db: db, version: version}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Check)
	r.GET("/ready", h.Ready)
}

func (h *Handler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC(),
	})
}

// Ready reports readiness, including database connectivity.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
