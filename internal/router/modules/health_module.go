package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-graphql-blog/pkg/response"
)

// HealthModule reports liveness of the backing services that are in use.
// Nil dependencies are skipped.
type HealthModule struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

func NewHealthModule(pool *pgxpool.Pool, rdb *redis.Client) *HealthModule {
	return &HealthModule{Pool: pool, Redis: rdb}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.health)
}

func (m *HealthModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	if m.Pool != nil {
		checks["postgres"] = status(m.Pool.Ping(ctx))
		healthy = healthy && checks["postgres"] == "ok"
	}
	if m.Redis != nil {
		checks["redis"] = status(m.Redis.Ping(ctx).Err())
		healthy = healthy && checks["redis"] == "ok"
	}
	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	response.Success(c, http.StatusOK, checks, "ok", nil)
}

func status(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
