package repository

import (
	"time"

	"gorm.io/gorm"

	"shopki/internal/models"
)

// PaymentRepository handles payment request database operations. The
// guarded updates below are the only concurrency primitive the payment
// core relies on: a terminal write lands at most once per correlation id.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment request row.
func (r *PaymentRepository) Create(p *models.PaymentRequest) error {
	return r.db.Create(p).Error
}

// FindByCheckoutID returns a payment request by its gateway correlation id.
func (r *PaymentRepository) FindByCheckoutID(checkoutRequestID string) (*models.PaymentRequest, error) {
	var p models.PaymentRequest
	if err := r.db.Where("checkout_request_id = ?", checkoutRequestID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByOrderID returns payment requests for an order, newest first.
func (r *PaymentRepository) FindByOrderID(orderID string) ([]models.PaymentRequest, error) {
	var payments []models.PaymentRequest
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// MarkTerminal transitions a non-terminal row to completed or failed.
// The WHERE clause is the compare-and-set: it only matches rows still in
// initiated/pending, so of any number of racing writers exactly one
// observes RowsAffected == 1 and the rest are no-ops.
func (r *PaymentRepository) MarkTerminal(checkoutRequestID, status string, resultCode int, resultDesc, receipt string) (bool, error) {
	res := r.db.Model(&models.PaymentRequest{}).
		Where("checkout_request_id = ? AND status IN ?", checkoutRequestID,
			[]string{models.PaymentStatusInitiated, models.PaymentStatusPending}).
		Updates(map[string]interface{}{
			"status":         status,
			"result_code":    resultCode,
			"result_desc":    resultDesc,
			"receipt_number": receipt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindStalePending returns pending rows created before cutoff.
func (r *PaymentRepository) FindStalePending(cutoff time.Time) ([]models.PaymentRequest, error) {
	var payments []models.PaymentRequest
	err := r.db.
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Find(&payments).Error
	return payments, err
}

// MarkExpired transitions a long-pending row to expired. Same guarded
// update as MarkTerminal, with the age check inside the WHERE so the
// sweeper can never race past a callback that just resolved the row.
func (r *PaymentRepository) MarkExpired(checkoutRequestID string, cutoff time.Time) (bool, error) {
	res := r.db.Model(&models.PaymentRequest{}).
		Where("checkout_request_id = ? AND status = ? AND created_at < ?",
			checkoutRequestID, models.PaymentStatusPending, cutoff).
		Update("status", models.PaymentStatusExpired)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
