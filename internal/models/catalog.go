package models

import "time"

// Product maps to the `products` table.
type Product struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:200" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Price       int       `gorm:"column:price" json:"price"`
	Stock       int       `gorm:"column:stock" json:"stock"`
	ImageURL    string    `gorm:"column:image_url;size:500" json:"image_url"`
	CategoryID  uint      `gorm:"column:category_id;index" json:"category_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Category maps to the `categories` table.
type Category struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
	Slug string `gorm:"column:slug;size:200;uniqueIndex" json:"slug"`
}

func (Category) TableName() string {
	return "categories"
}

// Review maps to the `reviews` table.
type Review struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"column:product_id;index" json:"product_id"`
	Author    string    `gorm:"column:author;size:200" json:"author"`
	Rating    int       `gorm:"column:rating" json:"rating"`
	Comment   string    `gorm:"column:comment;type:text" json:"comment"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
