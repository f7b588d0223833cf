package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"shopki/internal/models"
)

// MigrateAndSeed ensures required tables exist and inserts a starter
// catalog when the store is empty.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedCatalog(db); err != nil {
		return fmt.Errorf("seed catalog failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Product{},
		&models.Category{},
		&models.Review{},
		&models.Order{},
		&models.PaymentRequest{},
	}
}

func seedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Fashion", Slug: "fashion"},
		{Name: "Home & Kitchen", Slug: "home-kitchen"},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	products := []models.Product{
		{Name: "Wireless Earbuds", Description: "Bluetooth 5.3 earbuds with charging case", Price: 2500, Stock: 120, CategoryID: categories[0].ID},
		{Name: "Smartphone Stand", Description: "Adjustable aluminium desk stand", Price: 800, Stock: 300, CategoryID: categories[0].ID},
		{Name: "Canvas Tote Bag", Description: "Heavy-duty everyday tote", Price: 1200, Stock: 80, CategoryID: categories[1].ID},
		{Name: "Ceramic Mug Set", Description: "Set of four 350ml mugs", Price: 1800, Stock: 60, CategoryID: categories[2].ID},
	}
	return db.Create(&products).Error
}
