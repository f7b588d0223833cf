package repository

import (
	"gorm.io/gorm"

	"shopki/internal/models"
)

// OrderRepository handles order database operations.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order.
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// FindByID returns an order by id.
func (r *OrderRepository) FindByID(orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("id_order = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// SetPaymentStatus writes the resolved payment status onto the order. Only
// `completed` is final at the order level: a failed or expired attempt may
// be superseded by a later paid retry. Exactly-once per attempt lives in
// the payment-row compare-and-set, not here.
func (r *OrderRepository) SetPaymentStatus(orderID, status string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id_order = ? AND payment_status <> ?", orderID, models.PaymentStatusCompleted).
		Update("payment_status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindAll returns orders with pagination.
func (r *OrderRepository) FindAll(limit, page int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	db := r.db.Model(&models.Order{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
