package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the full query surface. Services depend on this interface so
// tests can substitute in-memory stubs.
type Querier interface {
	// users and sessions
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)
	UpdateUserPermissions(ctx context.Context, arg UpdateUserPermissionsParams) error
	ExtendSubscription(ctx context.Context, arg ExtendSubscriptionParams) error
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (Session, error)
	RotateSessionToken(ctx context.Context, arg RotateSessionTokenParams) error
	DeleteSessionByToken(ctx context.Context, refreshToken string) error
	DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error

	// books
	ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error)
	CountBooks(ctx context.Context, arg CountBooksParams) (int64, error)
	GetBookByID(ctx context.Context, id pgtype.UUID) (Book, error)
	CreateBook(ctx context.Context, arg CreateBookParams) (Book, error)
	UpdateBook(ctx context.Context, arg UpdateBookParams) (Book, error)
	DeleteBook(ctx context.Context, id pgtype.UUID) error
	DecrementBookStock(ctx context.Context, arg DecrementBookStockParams) (Book, error)
	ListLowStockBooks(ctx context.Context) ([]Book, error)

	// carts
	ListCartItemsForUser(ctx context.Context, userID pgtype.UUID) ([]CartItemDetail, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (CartItem, error)
	FindCartItem(ctx context.Context, arg FindCartItemParams) (CartItem, error)
	CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error)
	UpdateCartItemQty(ctx context.Context, arg UpdateCartItemQtyParams) error
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error
	ClearCart(ctx context.Context, userID pgtype.UUID) error

	// orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error
	GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error)
	GetOrderByIDForUser(ctx context.Context, arg GetOrderByIDForUserParams) (Order, error)
	ListOrdersForUser(ctx context.Context, arg ListOrdersForUserParams) ([]Order, error)
	CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error
	CancelOrder(ctx context.Context, arg CancelOrderParams) error
	UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) error
	SetOrderTracking(ctx context.Context, arg SetOrderTrackingParams) error

	// payments
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error)
	GetLatestPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (Payment, error)
	GetPaymentByGatewayRef(ctx context.Context, gatewayRef pgtype.Text) (Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) error
	InsertPaymentEvent(ctx context.Context, arg InsertPaymentEventParams) error

	// schools
	ListSchools(ctx context.Context) ([]School, error)
	GetSchoolByID(ctx context.Context, id int64) (School, error)
	CreateSchool(ctx context.Context, arg CreateSchoolParams) (School, error)
	UpdateSchool(ctx context.Context, arg UpdateSchoolParams) (School, error)
	UpdateSchoolPaymentSettings(ctx context.Context, arg UpdateSchoolPaymentSettingsParams) (School, error)

	// fees
	ListFeeStructures(ctx context.Context, arg ListFeeStructuresParams) ([]FeeStructure, error)
	GetFeeStructureByID(ctx context.Context, id int64) (FeeStructure, error)
	CreateFeeStructure(ctx context.Context, arg CreateFeeStructureParams) (FeeStructure, error)
	SupersedeFeeStructures(ctx context.Context, arg SupersedeFeeStructuresParams) error
	CreateFeePayment(ctx context.Context, arg CreateFeePaymentParams) (FeePayment, error)
	GetFeePaymentByID(ctx context.Context, id pgtype.UUID) (FeePayment, error)
	UpdateFeePaymentStatus(ctx context.Context, arg UpdateFeePaymentStatusParams) error
	ListFeePaymentsBySchool(ctx context.Context, arg ListFeePaymentsBySchoolParams) ([]FeePayment, error)
	CountCompletedFeePaymentsByStructure(ctx context.Context, feeStructureID pgtype.Int8) (int64, error)

	// culture
	ListCultureCategories(ctx context.Context) ([]CultureCategory, error)
	CreateCultureCategory(ctx context.Context, arg CreateCultureCategoryParams) (CultureCategory, error)
	ListCulturePrograms(ctx context.Context, arg ListCultureProgramsParams) ([]CultureProgram, error)
	GetCultureProgramByID(ctx context.Context, id int64) (CultureProgram, error)
	CreateCultureProgram(ctx context.Context, arg CreateCultureProgramParams) (CultureProgram, error)
	UpdateCultureProgram(ctx context.Context, arg UpdateCultureProgramParams) (CultureProgram, error)
	DeleteCultureProgram(ctx context.Context, id int64) error

	// posts
	CreatePost(ctx context.Context, arg CreatePostParams) (Post, error)
	GetPostByID(ctx context.Context, id pgtype.UUID) (Post, error)
	ListApprovedPosts(ctx context.Context, arg ListApprovedPostsParams) ([]Post, error)
	ListPostsByStatus(ctx context.Context, arg ListPostsByStatusParams) ([]Post, error)
	ListPostsForUser(ctx context.Context, arg ListPostsForUserParams) ([]Post, error)
	ModeratePost(ctx context.Context, arg ModeratePostParams) (Post, error)
	DeletePost(ctx context.Context, arg DeletePostParams) (int64, error)

	// notifications
	CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error)
	ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]Notification, error)
	CountUnreadNotifications(ctx context.Context) (int64, error)
	MarkNotificationRead(ctx context.Context, id pgtype.UUID) (int64, error)
	MarkAllNotificationsRead(ctx context.Context) error

	// domain events
	InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) error
	ListDomainEvents(ctx context.Context, arg ListDomainEventsParams) ([]DomainEvent, error)

	// analytics
	GetOverview(ctx context.Context) (OverviewRow, error)
	ListTopBooks(ctx context.Context, limit int32) ([]TopBookRow, error)
	ListFeeCollectionBySchool(ctx context.Context) ([]FeeCollectionRow, error)
}

var _ Querier = (*Queries)(nil)
