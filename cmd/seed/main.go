package main

import (
	"os"
	"strings"

	"github.com/lumen-optics/internal/authz"
	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedVariant struct {
	Name       string
	Color      string
	Size       string
	Adjustment string
	Stock      int
}

type seedProduct struct {
	Name          string
	SKU           string
	Category      string
	Brand         string
	Price         string
	SalePrice     string
	FrameType     string
	FrameShape    string
	FrameMaterial string
	FrameColor    string
	Gender        string
	Measurements  [4]int
	Stock         int
	Featured      bool
	Images        []string
	Variants      []seedVariant
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

	// 分类
	categories := []models.Category{
		{Name: "Eyeglasses", Slug: "eyeglasses", Description: "Prescription-ready optical frames", SortOrder: 1},
		{Name: "Sunglasses", Slug: "sunglasses", Description: "UV400 protected sunglasses", SortOrder: 2},
		{Name: "Blue Light", Slug: "blue-light", Description: "Screen glasses with blue light filtering", SortOrder: 3},
	}
	categoryIDs := map[string]uint{}
	for i := range categories {
		cat := categories[i]
		cat.IsActive = true
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).Limit(1).Find(&existing).Error; err != nil {
			stdLog.Printf("Failed to load category %s: %v", cat.Slug, err)
			continue
		}
		if existing.ID != 0 {
			stdLog.Printf("Category already exists: %s", cat.Slug)
			categoryIDs[cat.Slug] = existing.ID
			continue
		}
		if err := models.DB.Create(&cat).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			continue
		}
		stdLog.Printf("Created category: %s", cat.Slug)
		categoryIDs[cat.Slug] = cat.ID
	}
	if parentID, ok := categoryIDs["eyeglasses"]; ok {
		if childID, ok := categoryIDs["blue-light"]; ok {
			models.DB.Model(&models.Category{}).Where("id = ?", childID).Update("parent_id", parentID)
		}
	}

	// 品牌
	brandIDs := map[string]uint{}
	for _, name := range []string{"Lumen", "Harbor & Co", "Solstice"} {
		slug := strings.ToLower(strings.NewReplacer(" & ", "-", " ", "-").Replace(name))
		brand := models.Brand{Name: name, Slug: slug, IsActive: true}
		if err := models.DB.Where("slug = ?", slug).FirstOrCreate(&brand).Error; err != nil {
			stdLog.Printf("Failed to create brand %s: %v", name, err)
			continue
		}
		brandIDs[name] = brand.ID
	}

	// 商品
	products := []seedProduct{
		{
			Name: "Atlas Round", SKU: "LUM-ATLAS-RND", Category: "eyeglasses", Brand: "Lumen",
			Price: "129.00", FrameType: constants.FrameTypeEyeglasses, FrameShape: "round",
			FrameMaterial: "acetate", FrameColor: "tortoise", Gender: "unisex",
			Measurements: [4]int{138, 49, 21, 145}, Stock: 40, Featured: true,
			Images: []string{"https://images.unsplash.com/photo-1574258495973-f010dfbb5371?w=800"},
			Variants: []seedVariant{
				{Name: "Tortoise / Medium", Color: "tortoise", Size: "M", Adjustment: "0", Stock: 20},
				{Name: "Black / Wide", Color: "black", Size: "L", Adjustment: "10.00", Stock: 12},
			},
		},
		{
			Name: "Harbor Rectangle", SKU: "HAR-RECT-01", Category: "eyeglasses", Brand: "Harbor & Co",
			Price: "99.00", SalePrice: "79.00", FrameType: constants.FrameTypeEyeglasses, FrameShape: "rectangle",
			FrameMaterial: "titanium", FrameColor: "gunmetal", Gender: "men",
			Measurements: [4]int{142, 53, 18, 145}, Stock: 25,
			Images: []string{"https://images.unsplash.com/photo-1591076482161-42ce6da69f67?w=800"},
		},
		{
			Name: "Solstice Aviator", SKU: "SOL-AVI-01", Category: "sunglasses", Brand: "Solstice",
			Price: "149.00", FrameType: constants.FrameTypeSunglasses, FrameShape: "aviator",
			FrameMaterial: "metal", FrameColor: "gold", Gender: "unisex",
			Measurements: [4]int{140, 58, 14, 140}, Stock: 30, Featured: true,
			Images: []string{"https://images.unsplash.com/photo-1511499767150-a48a237f0083?w=800"},
			Variants: []seedVariant{
				{Name: "Gold / Green Lens", Color: "gold", Size: "M", Adjustment: "0", Stock: 15},
				{Name: "Silver / Polarized", Color: "silver", Size: "M", Adjustment: "25.00", Stock: 8},
			},
		},
		{
			Name: "Pixel Blue Light", SKU: "LUM-PIXEL-BL", Category: "blue-light", Brand: "Lumen",
			Price: "59.00", FrameType: constants.FrameTypeEyeglasses, FrameShape: "square",
			FrameMaterial: "tr90", FrameColor: "clear", Gender: "unisex",
			Measurements: [4]int{136, 50, 19, 142}, Stock: 60,
			Images: []string{"https://images.unsplash.com/photo-1577803645773-f96470509666?w=800"},
		},
	}
	for _, item := range products {
		if err := seedCatalogProduct(item, categoryIDs, brandIDs); err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.SKU, err)
			continue
		}
		stdLog.Printf("Seeded product: %s", item.SKU)
	}

	// 管理员账号与 casbin 角色
	admin, err := models.EnsureDefaultAdmin(os.Getenv("LUMEN_DEFAULT_ADMIN_EMAIL"), os.Getenv("LUMEN_DEFAULT_ADMIN_PASSWORD"))
	if err != nil {
		stdLog.Fatalf("Failed to create admin user: %v", err)
	}
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}
	if err := authzService.SetUserRoles(admin.ID, []string{constants.UserRoleAdmin}); err != nil {
		stdLog.Fatalf("Failed to assign admin role: %v", err)
	}
	roles, err := authzService.UserRoles(admin.ID)
	if err != nil {
		stdLog.Fatalf("Failed to read admin roles: %v", err)
	}
	stdLog.Printf("Admin user ready: %s roles=%v", admin.Email, roles)
	stdLog.Println("Seed completed")
}

func seedCatalogProduct(item seedProduct, categoryIDs, brandIDs map[string]uint) error {
	var existing models.Product
	if err := models.DB.Unscoped().Where("sku = ?", item.SKU).Limit(1).Find(&existing).Error; err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	product := models.Product{
		Name:           item.Name,
		Slug:           strings.ToLower(strings.ReplaceAll(item.Name, " ", "-")),
		SKU:            item.SKU,
		Description:    item.Name + " frame with " + item.FrameMaterial + " construction.",
		BasePrice:      models.NewMoneyFromDecimal(decimal.RequireFromString(item.Price)),
		FrameType:      item.FrameType,
		FrameShape:     item.FrameShape,
		FrameMaterial:  item.FrameMaterial,
		FrameColor:     item.FrameColor,
		Gender:         item.Gender,
		FrameWidth:     intPtr(item.Measurements[0]),
		LensWidth:      intPtr(item.Measurements[1]),
		BridgeWidth:    intPtr(item.Measurements[2]),
		TempleLength:   intPtr(item.Measurements[3]),
		StockQuantity:  item.Stock,
		TrackInventory: true,
		IsActive:       true,
		IsFeatured:     item.Featured,
	}
	if item.SalePrice != "" {
		sale := models.NewMoneyFromDecimal(decimal.RequireFromString(item.SalePrice))
		product.SalePrice = &sale
	}
	if id, ok := categoryIDs[item.Category]; ok {
		product.CategoryID = &id
	}
	if id, ok := brandIDs[item.Brand]; ok {
		product.BrandID = &id
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		for i, url := range item.Images {
			image := models.ProductImage{ProductID: product.ID, ImageURL: url, AltText: item.Name, IsPrimary: i == 0, SortOrder: i}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}
		for _, v := range item.Variants {
			variant := models.ProductVariant{
				ProductID:       product.ID,
				Name:            v.Name,
				SKU:             item.SKU + "-" + strings.ToUpper(v.Color) + "-" + v.Size,
				Color:           v.Color,
				Size:            v.Size,
				PriceAdjustment: models.NewMoneyFromDecimal(decimal.RequireFromString(v.Adjustment)),
				StockQuantity:   v.Stock,
				IsActive:        true,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func intPtr(v int) *int {
	return &v
}
