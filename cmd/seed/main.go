package main

import (
	"errors"
	"time"

	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/logger"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/service"
)

type seedMember struct {
	group     string
	shortCode string
	name      string
	sortOrder int
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	codeRepo := repository.NewCodeRepository(models.DB)
	metaRepo := repository.NewMetaRepository(models.DB)
	codeService := service.NewCodeService(codeRepo, metaRepo, 5*time.Second)

	// 创建八个编码组根节点
	if err := codeService.EnsureCodecGroups("seed"); err != nil {
		stdLog.Fatalf("Failed to ensure code groups: %v", err)
	}
	stdLog.Printf("Code groups ready")

	// 示例词表
	members := []seedMember{
		{constants.GroupBrand, "RY", "Roy", 1},
		{constants.GroupBrand, "LX", "Lexon", 2},
		{constants.GroupDivisionType, "1", "Apparel", 1},
		{constants.GroupDivisionType, "2", "Goods", 2},
		{constants.GroupProductGroup, "SG", "Sunglasses", 1},
		{constants.GroupProductGroup, "OP", "Optical", 2},
		{constants.GroupProductType, "WC", "Watch", 1},
		{constants.GroupProductType, "BG", "Bag", 2},
		{constants.GroupProductCode, constants.ProductCodeUnassigned, "Unassigned", 0},
		{constants.GroupProductCode, "01", "Series 01", 1},
		{constants.GroupType2, "00", "Default", 0},
		{constants.GroupYear, "24", "2024", 1},
		{constants.GroupYear, "25", "2025", 2},
		{constants.GroupColor, "BLK", "Black", 1},
		{constants.GroupColor, "WHT", "White", 2},
		{constants.GroupColor, "NVY", "Navy", 3},
	}

	for _, member := range members {
		group, err := codeRepo.GetGroupByName(member.group)
		if err != nil || group == nil {
			stdLog.Fatalf("Failed to load group %s: %v", member.group, err)
		}
		_, err = codeService.CreateMember(service.CreateCodeInput{
			ParentID:  group.ID,
			ShortCode: member.shortCode,
			Name:      member.name,
			SortOrder: member.sortOrder,
			Operator:  "seed",
		})
		if errors.Is(err, service.ErrDuplicateCode) {
			stdLog.Printf("Member already exists: %s/%s", member.group, member.shortCode)
			continue
		}
		if err != nil {
			stdLog.Fatalf("Failed to create member %s/%s: %v", member.group, member.shortCode, err)
		}
		stdLog.Printf("Created member: %s/%s", member.group, member.shortCode)
	}

	stdLog.Printf("Seed data initialized")
}
