package provider

import (
	"github.com/lumen-optics/internal/authz"
	"github.com/lumen-optics/internal/cache"
	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/queue"
	"github.com/lumen-optics/internal/repository"
	"github.com/lumen-optics/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container 依赖注入容器
type Container struct {
	Config          *config.Config
	QueueClient     *queue.Client
	MetricsRegistry *prometheus.Registry
	Metrics         *metrics.CommerceMetrics
	Gateway         stripe.Gateway

	// Repositories
	UserRepo         repository.UserRepository
	AddressRepo      repository.AddressRepository
	PrescriptionRepo repository.PrescriptionRepository
	ProductRepo      repository.ProductRepository
	CategoryRepo     repository.CategoryRepository
	ReviewRepo       repository.ReviewRepository
	CartRepo         repository.CartRepository
	OrderRepo        repository.OrderRepository
	TryOnRepo        repository.TryOnRepository

	// Services
	AuthzService        *authz.Service
	UserAuthService     *service.UserAuthService
	UserService         *service.UserService
	EmailService        *service.EmailService
	CaptchaService      *service.CaptchaService
	UploadService       *service.UploadService
	CatalogService      *service.CatalogService
	CartService         *service.CartService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	NotificationService *service.NotificationService
	ARService           *service.ARService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Container{
		Config:          cfg,
		QueueClient:     queueClient,
		MetricsRegistry: registry,
		Metrics:         metrics.NewCommerceMetrics(registry),
		Gateway:         newStripeGateway(cfg.Stripe),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放队列与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if err := c.QueueClient.Close(); err != nil {
		firstErr = err
	}
	if err := cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// newStripeGateway 未配置密钥时返回 nil，支付接口统一报网关错误
func newStripeGateway(cfg config.StripeConfig) stripe.Gateway {
	client, err := stripe.NewClient(stripe.Config{
		SecretKey:     cfg.SecretKey,
		WebhookSecret: cfg.WebhookSecret,
		Currency:      cfg.Currency,
		Timeout:       cfg.Timeout(),
	})
	if err != nil {
		logger.Warnw("provider_init_stripe_failed", "error", err)
		return nil
	}
	return client
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.PrescriptionRepo = repository.NewPrescriptionRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TryOnRepo = repository.NewTryOnRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.CaptchaService)
	c.UserService = service.NewUserService(c.UserRepo, c.AddressRepo, c.PrescriptionRepo)
	c.UploadService = service.NewUploadService(c.Config.Upload)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.CategoryRepo, c.ReviewRepo, c.Config.Catalog.CacheTTL())
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.PrescriptionRepo)
	c.NotificationService = service.NewNotificationService(c.EmailService, c.QueueClient, c.OrderRepo, c.Metrics)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CartRepo, c.Gateway, c.NotificationService, c.Metrics, c.Config.Order)
	c.PaymentService = service.NewPaymentService(c.CartRepo, c.Gateway, c.OrderService, c.Metrics, c.Config.Stripe.Currency)
	c.ARService = service.NewARService(c.Config.AR, c.ProductRepo, c.TryOnRepo, c.Metrics)
}
