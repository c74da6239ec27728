package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/validation"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order belongs to a user. TotalAmount is derived from its items and is
// never written by clients.
type Order struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Status      OrderStatus     `gorm:"size:20;not null" json:"status" validate:"oneof=pending paid shipped delivered cancelled"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
}

func (o *Order) Validate() error {
	errs := validation.Struct(o)
	validation.Money(errs, "total_amount", o.TotalAmount)
	return errs.Err()
}

// OrderItem is one product line. UnitPrice is captured when the line is
// added; Subtotal always equals UnitPrice * Quantity once saved.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order     *Order          `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Quantity  int             `gorm:"not null" json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
}

// ComputeSubtotal refreshes the derived subtotal.
func (i *OrderItem) ComputeSubtotal() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *OrderItem) Validate() error {
	errs := validation.Struct(i)
	validation.Money(errs, "unit_price", i.UnitPrice)
	if len(errs) == 0 {
		validation.Money(errs, "subtotal", i.Subtotal)
	}
	if i.OrderID == uuid.Nil {
		errs.Add("order_id", "is required")
	}
	if i.ProductID == uuid.Nil {
		errs.Add("product_id", "is required")
	}
	return errs.Err()
}

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a payment attempt against an order. Once stored it is
// never changed through the API.
type Payment struct {
	BaseModel
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         *Order          `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Method        PaymentMethod   `gorm:"column:payment_method;size:20;not null" json:"payment_method" validate:"required,oneof=credit_card debit_card paypal bank_transfer"`
	Status        PaymentStatus   `gorm:"column:payment_status;size:20;not null" json:"payment_status" validate:"oneof=pending completed failed"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	TransactionID *string         `gorm:"size:100;uniqueIndex" json:"transaction_id" validate:"omitempty,max=100"`
}

func (p *Payment) Validate() error {
	errs := validation.Struct(p)
	validation.Money(errs, "amount", p.Amount)
	return errs.Err()
}
