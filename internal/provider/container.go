package provider

import (
	"strings"
	"time"

	"github.com/catalog-next/internal/authz"
	"github.com/catalog-next/internal/cache"
	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/importer"
	"github.com/catalog-next/internal/logger"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/queue"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	CodeRepo          repository.CodeRepository
	MetaRepo          repository.MetaRepository
	ProductRepo       repository.ProductRepository
	VariantRepo       repository.ProductVariantRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Resolver
	CodeResolver *resolver.Resolver

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	CaptchaService      *service.CaptchaService
	CodeService         *service.CodeService
	ProductService      *service.ProductService
	VariantService      *service.VariantService
	CatalogQueryService *service.CatalogQueryService
	AuthzAuditService   *service.AuthzAuditService

	// Importer
	ImportManager *importer.Manager
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

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()
	c.initImporter()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.CodeRepo = repository.NewCodeRepository(db)
	c.MetaRepo = repository.NewMetaRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewProductVariantRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
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

	c.CodeResolver = resolver.New(c.CodeRepo, c.MetaRepo)

	writeTimeout := time.Duration(c.Config.Catalog.WriteTimeoutSeconds) * time.Second

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CodeService = service.NewCodeService(c.CodeRepo, c.MetaRepo, writeTimeout)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CodeResolver, writeTimeout)
	c.VariantService = service.NewVariantService(c.ProductRepo, c.VariantRepo, c.CodeResolver, writeTimeout)
	c.CatalogQueryService = service.NewCatalogQueryService(c.ProductRepo, c.VariantRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
}

func (c *Container) initImporter() {
	importerCfg := c.Config.Importer
	if strings.TrimSpace(importerCfg.SourceDSN) == "" {
		return
	}
	c.ImportManager = importer.NewManager(func() (*importer.Importer, func(), error) {
		source, err := models.OpenDB(importerCfg.SourceDriver, importerCfg.SourceDSN, models.DBPoolConfig{})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, dbErr := source.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		imp := importer.New(source, importerCfg,
			c.CodeService, c.ProductService, c.VariantService,
			c.CodeRepo, c.ProductRepo, c.VariantRepo, c.CodeResolver)
		return imp, cleanup, nil
	})
}
