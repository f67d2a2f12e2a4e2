package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-catalog/internal/config"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Controller handles general HTTP requests.
type Controller struct {
	db     Pinger
	config *config.Config
}

// New creates a new Controller with the given configuration and database handle.
func New(config *config.Config, db Pinger) *Controller {
	return &Controller{
		config: config,
		db:     db,
	}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	if con.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		if err := con.db.PingContext(ctx); err != nil {
			slog.Error("database ping failed", slog.Any("err", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
