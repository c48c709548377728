package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	RoleOwner   UserRole = "owner"
	RolePegawai UserRole = "pegawai"

	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"

	LaundryPending   LaundryStatus = "pending"
	LaundryInQueue   LaundryStatus = "in_queue"
	LaundryInProcess LaundryStatus = "in_process"
	LaundryReady     LaundryStatus = "ready"
	LaundryDelivered LaundryStatus = "delivered"
)

type UserRole string
type PaymentStatus string
type LaundryStatus string

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentPartial:
		return true
	}
	return false
}

// ValidLaundryStatus reports whether s is a known laundry status.
func ValidLaundryStatus(s LaundryStatus) bool {
	switch s {
	case LaundryPending, LaundryInQueue, LaundryInProcess, LaundryReady, LaundryDelivered:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Pegawai struct {
	ID          int64
	UserID      int64
	NamaPegawai string
	NoTelp      string
	Email       string
	User        *User
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID        int64
	Name      string
	Type      *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Service struct {
	ID          int64
	CategoryID  *int64
	Name        string
	MinOrder    int
	Type        *string
	Price       decimal.Decimal
	Discount    decimal.Decimal
	Estimate    *string
	Description *string
	Category    *Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type AddOn struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Customer struct {
	ID        int64
	Name      string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Transaction struct {
	ID                  int64
	UserID              int64
	CustomerID          int64
	TransactionDate     time.Time
	EstimatedCompletion *time.Time
	Total               decimal.Decimal
	PaymentStatus       PaymentStatus
	LaundryStatus       LaundryStatus
	PaymentMethod       *string
	PaidAmount          decimal.Decimal
	Notes               *string
	User                *User
	Customer            *Customer
	Details             []TransactionDetail
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

type TransactionDetail struct {
	ID            int64
	TransactionID int64
	CustomerID    *int64
	ServiceID     *int64
	AddOnID       *int64
	Quantity      int
	Weight        *int
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
	Service       *Service
	AddOn         *AddOn
	Customer      *Customer
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

type ExpenseCategory struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type Expense struct {
	ID            int64
	UserID        int64
	CategoryID    *int64
	Amount        decimal.Decimal
	PaymentMethod *string
	Description   *string
	Date          time.Time
	RefNo         *string
	User          *User
	Category      *ExpenseCategory
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// AddOnStats is the usage/revenue rollup for one add-on. Soft-deleted
// details are included so historical numbers survive transaction removal.
type AddOnStats struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	UsageCount        int64
	TotalQuantitySold int64
	TotalRevenue      decimal.Decimal
}
