package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/tubedigest/docs"
	"github.com/d60-Lab/tubedigest/internal/api/handler"
	"github.com/d60-Lab/tubedigest/internal/api/middleware"
)

// RouterOptions 路由可选项
type RouterOptions struct {
	JWTSecret   string
	ServiceName string
	Swagger     bool
}

// NewRouter 注册全部路由
func NewRouter(h *handler.Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1", middleware.Auth(opts.JWTSecret))

	subs := v1.Group("/subscriptions")
	subs.POST("", h.CreateSubscription)
	subs.GET("", h.ListSubscriptions)
	subs.PATCH("/:id", h.UpdateSubscription)
	subs.DELETE("/:id", h.DeleteSubscription)

	lists := v1.Group("/lists")
	lists.POST("/:list_id/follow", h.FollowList)
	lists.DELETE("/:list_id/follow", h.UnfollowList)

	return r
}
