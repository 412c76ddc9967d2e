package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/importer"
	"github.com/catalog-next/internal/logger"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/service"
)

const (
	exitOK          = 0
	exitWithSkips   = 1
	exitSourceError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var sourceDSN string
	var sourceDriver string
	var autoCreate bool
	flag.StringVar(&sourceDSN, "source-dsn", "", "旧目录库连接串（覆盖配置文件）")
	flag.StringVar(&sourceDriver, "source-driver", "", "旧目录库驱动（覆盖配置文件）")
	flag.BoolVar(&autoCreate, "auto-create-codes", false, "缺失短码自动补建")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	importerCfg := cfg.Importer
	if strings.TrimSpace(sourceDSN) != "" {
		importerCfg.SourceDSN = sourceDSN
	}
	if strings.TrimSpace(sourceDriver) != "" {
		importerCfg.SourceDriver = sourceDriver
	}
	if autoCreate {
		importerCfg.AutoCreateCodes = true
	}
	if strings.TrimSpace(importerCfg.SourceDSN) == "" {
		stdLog.Printf("旧目录库 source_dsn 未配置")
		return exitSourceError
	}

	// 目标库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Printf("目标库初始化失败: %v", err)
		return exitSourceError
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Printf("目标库迁移失败: %v", err)
		return exitSourceError
	}

	// 源库（只读）
	source, err := models.OpenDB(importerCfg.SourceDriver, importerCfg.SourceDSN, models.DBPoolConfig{})
	if err != nil {
		stdLog.Printf("旧目录库连接失败: %v", err)
		return exitSourceError
	}
	defer func() {
		if sqlDB, dbErr := source.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	}()

	codeRepo := repository.NewCodeRepository(models.DB)
	metaRepo := repository.NewMetaRepository(models.DB)
	productRepo := repository.NewProductRepository(models.DB)
	variantRepo := repository.NewProductVariantRepository(models.DB)
	codeResolver := resolver.New(codeRepo, metaRepo)

	writeTimeout := time.Duration(cfg.Catalog.WriteTimeoutSeconds) * time.Second
	codeService := service.NewCodeService(codeRepo, metaRepo, writeTimeout)
	productService := service.NewProductService(productRepo, codeResolver, writeTimeout)
	variantService := service.NewVariantService(productRepo, variantRepo, codeResolver, writeTimeout)

	imp := importer.New(source, importerCfg,
		codeService, productService, variantService,
		codeRepo, productRepo, variantRepo, codeResolver)

	report, err := imp.Run()
	if err != nil {
		stdLog.Printf("导入失败: %v", err)
		return exitSourceError
	}

	stdLog.Printf("导入完成: %s", report.Summary())
	for reason, count := range report.SkippedByReason {
		stdLog.Printf("跳过 %s: %d", reason, count)
	}
	if report.HasSkips() {
		return exitWithSkips
	}
	return exitOK
}
