// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/api"
	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/config"
	mw "github.com/MorseWayne/content_shop/internal/middleware"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
)

// Pinger 健康检查依赖，*sql.DB 满足该接口
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	UserHandler         *api.UserHandler
	BlogHandler         *api.BlogHandler
	ProductHandler      *api.ProductHandler
	OrderHandler        *api.OrderHandler
	NotificationHandler *api.NotificationHandler
	Tokens              service.TokenService
	// Liveness 为 nil 时认证中间件只信任令牌本身
	Liveness mw.LivenessChecker
	Cache    cache.Cache
	DB       Pinger
}

// healthTimeout 健康检查中单个依赖的探测超时
const healthTimeout = 2 * time.Second

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   *Dependencies
	logger *zap.Logger
}

// New 创建新的路由器实例
func New(cfg *config.Config, deps *Dependencies, lg *zap.Logger) *GinRouter {
	return &GinRouter{cfg: cfg, deps: deps, logger: lg}
}

// Setup 注册路由并返回带完整中间件链的 handler
// 请求进入顺序：CORS → request ID → recovery → timeout → gin（metrics → access log → 路由）
func (r *GinRouter) Setup() http.Handler {
	if r.cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else if r.cfg.App.Env == "test" {
		gin.SetMode(gin.TestMode)
	}
	api.RegisterValidatorTagNames()

	r.engine = gin.New()
	r.engine.Use(mw.Metrics(r.cfg.App.Name), mw.AccessLog(r.logger))
	r.setupRoutes()

	var handler http.Handler = r.engine
	handler = mw.Timeout(r.cfg.App.RequestTimeout)(handler)
	handler = mw.Recovery(r.logger)(handler)
	handler = mw.RequestID(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: r.cfg.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.CORS.AllowedHeaders,
	})(handler)
	return handler
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.engine.Static(r.cfg.Upload.URLPrefix, r.cfg.Upload.Dir)

	authRequired := mw.Auth(r.deps.Tokens, r.deps.Liveness, r.logger)
	idempotent := mw.Idempotency(r.deps.Cache, mw.IdempotencyConfig{
		Header: r.cfg.Idempotency.Header,
		TTL:    r.cfg.Idempotency.TTL,
	}, r.logger)

	v1 := r.engine.Group("/api/v1")

	// 认证路由
	auth := v1.Group("/auth")
	{
		users := r.deps.UserHandler
		auth.POST("/register", users.Register)
		auth.POST("/login", users.Login)
		auth.POST("/token", users.Token)
		auth.PUT("/update", authRequired, users.UpdateProfile)
		auth.PUT("/change_password", authRequired, users.ChangePassword)
	}

	// 用户路由（需要认证）
	users := v1.Group("/users", authRequired)
	{
		h := r.deps.UserHandler
		users.GET("/me", h.Me)
		users.DELETE("/me", h.Deactivate)
		users.PUT("/profile", h.UpdateProfile)
		users.POST("/profile-picture", h.UploadProfilePicture)
	}

	// 博客：读公开，写需要认证
	blogs := v1.Group("/blogs")
	{
		h := r.deps.BlogHandler
		blogs.GET("", h.List)
		blogs.GET("/:id", h.Get)
		blogs.POST("", authRequired, h.Create)
		blogs.POST("/upload-image", authRequired, h.UploadImage)
		blogs.PUT("/:id", authRequired, h.Update)
		blogs.DELETE("/:id", authRequired, h.Delete)
	}

	// 商品：读公开，写需要认证
	products := v1.Group("/products")
	{
		h := r.deps.ProductHandler
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", authRequired, h.CreateProduct)
		products.PUT("/:id", authRequired, h.UpdateProduct)
		products.DELETE("/:id", authRequired, h.DeleteProduct)
	}

	// 订单：全部需要认证，下单支持幂等键
	orders := v1.Group("/orders", authRequired)
	{
		h := r.deps.OrderHandler
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("", idempotent, h.Create)
		orders.PUT("/:id", h.Update)
		orders.DELETE("/:id", h.Delete)
	}

	notifications := v1.Group("/notifications", authRequired)
	{
		h := r.deps.NotificationHandler
		notifications.GET("", h.List)
		notifications.POST("", h.Send)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// healthCheck 探测数据库与缓存，任一失败返回 503
func (r *GinRouter) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			healthy = false
			checks[name] = err.Error()
			r.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
			return
		}
		checks[name] = "ok"
	}
	if r.deps.DB != nil {
		check("database", r.deps.DB.PingContext)
	}
	if r.deps.Cache != nil {
		check("cache", r.deps.Cache.Ping)
	}

	data := map[string]any{
		"status":  "ok",
		"version": r.cfg.App.Version,
		"checks":  checks,
	}
	reqID := mw.RequestIDFromContext(c.Request.Context())
	if !healthy {
		data["status"] = "degraded"
		resp.WriteJSON(c.Writer, http.StatusServiceUnavailable, resp.CodeInternalError, "unhealthy", data, reqID, "")
		return
	}
	resp.OK(c.Writer, data, reqID, "")
}
