package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/app/orch"
)

// StatsSource is satisfied by orch.Orchestrator.
type StatsSource interface {
	Stats(ctx context.Context) (orch.Stats, error)
}

type healthResponse struct {
	Status string `json:"status"`
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

type statsResponse struct {
	orch.Stats
	Visits int `json:"visits"`
}

func statsHandler(src StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := src.Stats(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("stats")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, statsResponse{Stats: st, Visits: countVisit(c)})
	}
}

// countVisit bumps a per-browser counter kept in the signed session cookie.
func countVisit(c *gin.Context) int {
	session := sessions.Default(c)
	visits, _ := session.Get("visits").(int)
	visits++
	session.Set("visits", visits)
	if err := session.Save(); err != nil {
		log.Debug().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	return visits
}
