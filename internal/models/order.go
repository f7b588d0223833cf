package models

import "time"

// Order maps to the `orders` table. The payment core only ever touches
// payment_status; everything else belongs to the storefront CRUD surface.
type Order struct {
	IDOrder       string    `gorm:"column:id_order;primaryKey;size:100" json:"id_order"`
	CustomerName  string    `gorm:"column:customer_name;size:200" json:"customer_name"`
	CustomerEmail string    `gorm:"column:customer_email;size:200" json:"customer_email"`
	CustomerPhone string    `gorm:"column:customer_phone;size:20" json:"customer_phone"`
	Items         string    `gorm:"column:items;type:text" json:"items"`
	Total         int       `gorm:"column:total" json:"total"`
	Currency      string    `gorm:"column:currency;size:10" json:"currency"`
	PaymentStatus string    `gorm:"column:payment_status;size:20;index" json:"payment_status"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
