package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-graphql-blog/internal/container"
	handlers "github.com/oksasatya/go-graphql-blog/internal/interface/http"
	"github.com/oksasatya/go-graphql-blog/internal/interface/middleware"
	"github.com/oksasatya/go-graphql-blog/internal/router/modules"
)

func buildGraphQLModule() *modules.GraphQLModule {
	cfg := container.GetConfig()
	schema := container.GetSchema()
	logger := container.GetLogger()

	var limiter gin.HandlerFunc
	if cfg.RateLimitPerMinute > 0 && container.GetRedis() != nil {
		limiter = middleware.RateLimit(container.GetRedis(), cfg.RateLimitPerMinute, time.Minute,
			middleware.KeyByUserID(), middleware.AnyOf(middleware.AllowPrivateIP(), middleware.AllowWebSocket()))
	}

	return modules.NewGraphQLModule(
		handlers.NewGraphQLHandler(schema, logger),
		handlers.NewSubscriptionHandler(schema, logger, cfg.CORSOrigins()),
		container.GetJWT(),
		limiter,
	)
}

// InitModules builds every module from the container and adds it to the
// registry. Call once at startup after container.Build.
func InitModules(r *Registry) {
	r.Add(buildGraphQLModule())
	r.Add(modules.NewHealthModule(container.GetPGPool(), container.GetRedis()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
