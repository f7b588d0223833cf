package models

import "time"

// Payment request lifecycle. Completed, failed and expired are terminal:
// once a row reaches one of them it is never written again.
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

// TerminalPaymentStatuses lists the states no transition may leave.
var TerminalPaymentStatuses = []string{
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusExpired,
}

// IsTerminalPaymentStatus reports whether status permits no further transition.
func IsTerminalPaymentStatus(status string) bool {
	for _, s := range TerminalPaymentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PaymentRequest maps to the `payment_requests` table. One row per STK push
// initiation, keyed by the gateway-assigned CheckoutRequestID.
type PaymentRequest struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CheckoutRequestID string    `gorm:"column:checkout_request_id;size:100;uniqueIndex" json:"checkout_request_id"`
	MerchantRequestID string    `gorm:"column:merchant_request_id;size:100" json:"merchant_request_id"`
	OrderID           string    `gorm:"column:order_id;size:100;index" json:"order_id"`
	Phone             string    `gorm:"column:phone;size:20" json:"phone"`
	Amount            int       `gorm:"column:amount" json:"amount"`
	AccountReference  string    `gorm:"column:account_reference;size:100" json:"account_reference"`
	Description       string    `gorm:"column:description;size:200" json:"description"`
	Status            string    `gorm:"column:status;size:20;index" json:"status"`
	ResultCode        int       `gorm:"column:result_code" json:"result_code"`
	ResultDesc        string    `gorm:"column:result_desc;size:500" json:"result_desc"`
	ReceiptNumber     string    `gorm:"column:receipt_number;size:100" json:"receipt_number"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PaymentRequest) TableName() string {
	return "payment_requests"
}
