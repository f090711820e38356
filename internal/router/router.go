package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lumen-optics/internal/cache"
	"github.com/lumen-optics/internal/config"
	adminhandlers "github.com/lumen-optics/internal/http/handlers/admin"
	publichandlers "github.com/lumen-optics/internal/http/handlers/public"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := cache.Prefix()
	redisClient := cache.Client()
	loginRule := RuleFromConfig(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit)
	tryOnRule := RuleFromConfig(fmt.Sprintf("%s:rate:try_on", redisPrefix), cfg.Security.TryOnRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(AccessLogMiddleware(log, c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	r.Static("/uploads", uploadDir)

	var authenticator UserAuthenticator
	if c.UserAuthService != nil {
		authenticator = c.UserAuthService
	}
	userAuth := UserJWTAuthMiddleware(authenticator)

	apiV1 := r.Group("/api/v1")
	{
		// 商品目录（公开）
		products := apiV1.Group("/products")
		{
			products.GET("", publicHandler.ListProducts)
			products.GET("/categories", publicHandler.ListCategories)
			products.GET("/brands", publicHandler.ListBrands)
			products.GET("/featured", publicHandler.ListFeaturedProducts)
			products.GET("/search-suggestions", publicHandler.SearchSuggestions)
			products.GET("/filters", publicHandler.ProductFilters)
			products.GET("/slug/:slug", publicHandler.GetProductBySlug)
			products.GET("/:id", publicHandler.GetProduct)
			products.GET("/:id/reviews", publicHandler.ListProductReviews)
		}

		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha", publicHandler.GetCaptcha)
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		payments := apiV1.Group("/payments")
		{
			payments.GET("/payment-methods", publicHandler.PaymentMethods)
			payments.POST("/webhook", publicHandler.StripeWebhook)
			payments.POST("/create-payment-intent", userAuth, publicHandler.CreatePaymentIntent)
			payments.POST("/confirm-payment", userAuth, publicHandler.ConfirmPayment)
		}

		cart := apiV1.Group("/cart", userAuth)
		{
			cart.GET("", publicHandler.GetCart)
			cart.GET("/count", publicHandler.GetCartCount)
			cart.POST("/add", publicHandler.AddCartItem)
			cart.PUT("/update/:id", publicHandler.UpdateCartItem)
			cart.DELETE("/remove/:id", publicHandler.RemoveCartItem)
			cart.DELETE("/clear", publicHandler.ClearCart)
			cart.POST("/validate", publicHandler.ValidateCart)
		}

		orders := apiV1.Group("/orders", userAuth)
		{
			orders.GET("", publicHandler.ListOrders)
			orders.GET("/by-number/:number", publicHandler.GetOrderByNumber)
			orders.GET("/:id", publicHandler.GetOrder)
			orders.POST("/:id/cancel", publicHandler.CancelOrder)
			orders.GET("/:id/track", publicHandler.TrackOrder)
		}

		users := apiV1.Group("/users", userAuth)
		{
			users.GET("/profile", publicHandler.GetProfile)
			users.PUT("/profile", publicHandler.UpdateProfile)
			users.PUT("/password", publicHandler.ChangePassword)
			users.GET("/addresses", publicHandler.ListAddresses)
			users.POST("/addresses", publicHandler.CreateAddress)
			users.PUT("/addresses/:id", publicHandler.UpdateAddress)
			users.DELETE("/addresses/:id", publicHandler.DeleteAddress)
			users.GET("/prescriptions", publicHandler.ListPrescriptions)
			users.POST("/prescriptions", publicHandler.CreatePrescription)
			users.PUT("/prescriptions/:id", publicHandler.UpdatePrescription)
			users.DELETE("/prescriptions/:id", publicHandler.DeletePrescription)
		}

		ar := apiV1.Group("/ar", userAuth)
		{
			ar.POST("/try-on", RateLimitMiddleware(redisClient, tryOnRule, KeyByUserID), publicHandler.TryOn)
			ar.POST("/face-detection", RateLimitMiddleware(redisClient, tryOnRule, KeyByUserID), publicHandler.DetectFace)
			ar.GET("/product-compatibility/:id", publicHandler.ProductCompatibility)
			ar.POST("/save-try-on", publicHandler.SaveTryOn)
		}

		// 管理员接口（用户令牌 + casbin 鉴权）
		admin := apiV1.Group("/admin", userAuth, AdminAuthzMiddleware(c.AuthzService))
		{
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			admin.POST("/payments/refund", adminHandler.RefundPayment)

			admin.POST("/orders/:id/ship", adminHandler.ShipOrder)
			admin.POST("/orders/:id/deliver", adminHandler.DeliverOrder)

			admin.POST("/uploads/image", adminHandler.UploadProductImage)
			admin.DELETE("/uploads/image/:filename", adminHandler.DeleteProductImage)
		}
	}

	if c.MetricsRegistry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if err := models.Ping(ctx.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if cache.Enabled() {
			status["redis"] = "ok"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				status["redis"] = "unavailable"
			}
		}
		ctx.JSON(code, status)
	})

	return r
}
