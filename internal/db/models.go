package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStatus enumerates the order fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks money movement independently of fulfilment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PostStatus enumerates the community post moderation lifecycle.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

// FeeType distinguishes recurring monthly fees from yearly renewals.
type FeeType string

const (
	FeeTypeMonthly FeeType = "monthly"
	FeeTypeRenewal FeeType = "renewal"
)

type User struct {
	ID                    pgtype.UUID
	Name                  string
	Email                 string
	PasswordHash          string
	Role                  string
	SchoolPermissions     []int64
	CulturePermissions    []int64
	SubscriptionExpiresAt pgtype.Timestamptz
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

type Session struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	RefreshToken string
	UserAgent    pgtype.Text
	Ip           pgtype.Text
	ExpiresAt    pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

type Book struct {
	ID             pgtype.UUID
	Title          string
	Author         string
	Description    pgtype.Text
	Genre          pgtype.Text
	Price          int64
	Stock          int32
	StockThreshold int32
	ImageUrl       pgtype.Text
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type CartItem struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	BookID    pgtype.UUID
	Qty       int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItemDetail joins a cart row with the live book record so totals are
// always derived from current prices, never stored.
type CartItemDetail struct {
	ID     pgtype.UUID
	BookID pgtype.UUID
	Title  string
	Author string
	Price  int64
	Stock  int32
	Qty    int32
}

type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Currency        string
	TotalAmount     int64
	ShippingAddress []byte
	BillingAddress  []byte
	CancelReason    pgtype.Text
	TrackingNumber  pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	BookID    pgtype.UUID
	Title     string
	Author    string
	UnitPrice int64
	Qty       int32
	Subtotal  int64
}

type Payment struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	PaymentType string
	Gateway     string
	GatewayRef  pgtype.Text
	IntentToken pgtype.Text
	Amount      int64
	Currency    string
	Status      PaymentStatus
	ContextID   pgtype.Text
	Payload     []byte
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type PaymentEvent struct {
	ID        pgtype.UUID
	PaymentID pgtype.UUID
	Status    PaymentStatus
	Payload   []byte
	CreatedAt pgtype.Timestamptz
}

type School struct {
	ID            int64
	Name          string
	Slug          string
	Description   pgtype.Text
	Address       pgtype.Text
	ContactEmail  pgtype.Text
	ContactPhone  pgtype.Text
	SurchargeBps  int32
	SurchargeFlat int64
	GatewayRef    pgtype.Text
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type FeeStructure struct {
	ID           int64
	SchoolID     int64
	ClassName    string
	FeeType      FeeType
	SchoolAmount int64
	SurchargeBps int32
	SurchargeFix int64
	StudentPays  int64
	Installments int32
	AcademicYear string
	Active       bool
	CreatedAt    pgtype.Timestamptz
}

// FeePayment is the per-attempt notification row read by admin dashboards.
// The gateway remains authoritative for money movement.
type FeePayment struct {
	ID             pgtype.UUID
	SchoolID       int64
	FeeStructureID pgtype.Int8
	StudentName    string
	Amount         int64
	PaymentMethod  string
	Status         PaymentStatus
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type CultureCategory struct {
	ID          int64
	Name        string
	Slug        string
	Description pgtype.Text
	CreatedAt   pgtype.Timestamptz
}

type CultureProgram struct {
	ID          int64
	CategoryID  int64
	Title       string
	Description pgtype.Text
	EventDate   pgtype.Timestamptz
	Venue       pgtype.Text
	ImageUrl    pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Post struct {
	ID            pgtype.UUID
	UserID        pgtype.UUID
	Title         string
	Body          string
	Category      pgtype.Text
	Status        PostStatus
	ModeratorNote pgtype.Text
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type Notification struct {
	ID        pgtype.UUID
	Kind      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt pgtype.Timestamptz
}

type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID string
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
