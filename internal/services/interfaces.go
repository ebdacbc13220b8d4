package services

import (
	"context"
	"time"

	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

// Actor identifies who performs a mutation and from where. It is carried
// into every audited operation.
type Actor struct {
	UserID    uint
	Role      models.Role
	IP        string
	UserAgent string
}

// CreateUserInput holds the fields accepted at registration.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput holds optional profile changes made by an administrator.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *models.Role
	IsActive *bool
}

// UserServicer defines the contract for the credential store.
type UserServicer interface {
	CreateUser(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateUser(ctx context.Context, actor Actor, id uint, input UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor Actor, id uint) error
	CountUsers() (int64, error)
	EnsureAdmin(username, email, password string) (*models.User, bool, error)
}

// SessionServicer defines the contract for the session registry.
type SessionServicer interface {
	Open(ctx context.Context, userID uint, token string, expiresAt time.Time, ip, userAgent string) (*models.Session, error)
	IsValid(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID uint) (int64, error)
	ListActive(ctx context.Context, userID uint) ([]models.Session, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// RevocationStore is an optional fast-path cache of revoked token digests.
type RevocationStore interface {
	IsRevoked(ctx context.Context, digest string) (bool, error)
	MarkRevoked(ctx context.Context, digest string, ttl time.Duration) error
}

// RecordInput describes one mutation for the change recorder. A nil Before
// marks a creation and a nil After marks a deletion.
type RecordInput struct {
	EntityType string
	EntityID   uint
	Operation  models.AuditOperation
	Actor      Actor
	Before     map[string]any
	After      map[string]any
	Note       string
}

// AuditFilter holds optional filters for listing audit entries.
type AuditFilter struct {
	EntityType string
	EntityID   *uint
	Operation  models.AuditOperation
	ActorID    *uint
	From       *time.Time
	To         *time.Time
}

// LabelCount is one bucket of an aggregate count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ActorCount is the number of entries written by one actor.
type ActorCount struct {
	ActorID  *uint  `json:"actor_id"`
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

// DailyCount is the number of entries written on one calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AuditStatistics aggregates recent audit activity.
type AuditStatistics struct {
	PeriodDays   int          `json:"period_days"`
	TotalEntries int64        `json:"total_entries"`
	ByOperation  []LabelCount `json:"by_operation"`
	ByEntityType []LabelCount `json:"by_entity_type"`
	ByActor      []ActorCount `json:"by_actor"`
	Daily        []DailyCount `json:"daily"`
}

// AuditServicer defines the contract for the change recorder and its query surface.
type AuditServicer interface {
	Record(input RecordInput) *models.AuditEntry
	ListEntries(filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditEntry], error)
	GetEntry(id uint) (*models.AuditEntry, error)
	EntityHistory(entityType string, entityID uint) ([]models.AuditEntry, error)
	Statistics(now time.Time) (*AuditStatistics, error)
	Report(from, to *time.Time) ([]models.AuditEntry, error)
}

// OrderItemInput describes one material line. A nil UnitPrice captures the
// material's current catalogue price.
type OrderItemInput struct {
	MaterialID uint
	Quantity   float64
	UnitPrice  *int64
}

// CreateOrderInput holds the fields of a new order.
type CreateOrderInput struct {
	Number      string
	Customer    string
	Description string
	EntryDate   *time.Time
	ExitDate    *time.Time
	CarpenterID *uint
	Status      models.OrderStatus
	Notes       string
	Items       []OrderItemInput
}

// UpdateOrderInput holds optional order changes. Items, when set, replaces
// every line of the order.
type UpdateOrderInput struct {
	Number        *string
	Customer      *string
	Description   *string
	EntryDate     *time.Time
	ExitDate      *time.Time
	ClearExitDate bool
	CarpenterID   *uint
	Status        *models.OrderStatus
	Notes         *string
	Items         *[]OrderItemInput
}

// UpdateOrderItemInput holds optional changes to one order line.
type UpdateOrderItemInput struct {
	Quantity  *float64
	UnitPrice *int64
}

// OrderFilter holds optional filters for listing orders.
type OrderFilter struct {
	Status      *models.OrderStatus
	CarpenterID *uint
	Customer    string
}

// OrderStatistics summarises orders by status.
type OrderStatistics struct {
	TotalOrders int64            `json:"total_orders"`
	TotalValue  int64            `json:"total_value"`
	ByStatus    map[string]int64 `json:"by_status"`
}

// OrderServicer defines the contract for order-related business logic.
type OrderServicer interface {
	CreateOrder(actor Actor, input CreateOrderInput) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
	ListOrders(filter OrderFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Order], error)
	UpdateOrder(actor Actor, id uint, input UpdateOrderInput) (*models.Order, error)
	DeleteOrder(actor Actor, id uint) error
	AssignCarpenter(actor Actor, id uint, carpenterID *uint) (*models.Order, error)
	AddItem(actor Actor, orderID uint, input OrderItemInput) (*models.Order, error)
	UpdateItem(actor Actor, orderID, itemID uint, input UpdateOrderItemInput) (*models.Order, error)
	RemoveItem(actor Actor, orderID, itemID uint) (*models.Order, error)
	Statistics() (*OrderStatistics, error)
	RefreshStatuses(today time.Time) (int64, error)
}

// MaterialInput holds material fields. Pointers are optional on update.
type MaterialInput struct {
	Name         *string
	Unit         *string
	UnitPrice    *int64
	Stock        *float64
	MinimumStock *float64
	Supplier     *string
	IsActive     *bool
}

// StockOperation adjusts a material's stock.
type StockOperation string

const (
	StockAdd    StockOperation = "add"
	StockRemove StockOperation = "remove"
)

// MaterialStockLine is one row of the stock report.
type MaterialStockLine struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	Unit         string             `json:"unit"`
	Stock        float64            `json:"stock"`
	MinimumStock float64            `json:"minimum_stock"`
	UnitPrice    int64              `json:"unit_price"`
	StockValue   int64              `json:"stock_value"`
	Status       models.StockStatus `json:"status"`
}

// StockReport summarises stock across active materials.
type StockReport struct {
	Materials       []MaterialStockLine `json:"materials"`
	TotalMaterials  int                 `json:"total_materials"`
	LowStockCount   int                 `json:"low_stock_count"`
	EmptyStockCount int                 `json:"empty_stock_count"`
	TotalValue      int64               `json:"total_value"`
}

// MaterialServicer defines the contract for material-related business logic.
type MaterialServicer interface {
	CreateMaterial(actor Actor, input MaterialInput) (*models.Material, error)
	GetMaterial(id uint) (*models.Material, error)
	ListMaterials(activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Material], error)
	UpdateMaterial(actor Actor, id uint, input MaterialInput) (*models.Material, error)
	DeleteMaterial(actor Actor, id uint) error
	AdjustStock(actor Actor, id uint, op StockOperation, quantity float64, note string) (*models.Material, error)
	LowStock() ([]models.Material, error)
	StockReport() (*StockReport, error)
}

// CarpenterInput holds carpenter fields. Pointers are optional on update.
type CarpenterInput struct {
	Name      *string
	Email     *string
	Phone     *string
	Specialty *string
	IsActive  *bool
}

// CarpenterWithStats pairs a carpenter with order counts per status.
type CarpenterWithStats struct {
	models.Carpenter
	OrderCounts map[string]int64 `json:"order_counts"`
	TotalOrders int64            `json:"total_orders"`
}

// CarpenterServicer defines the contract for carpenter-related business logic.
type CarpenterServicer interface {
	CreateCarpenter(actor Actor, input CarpenterInput) (*models.Carpenter, error)
	GetCarpenter(id uint) (*models.Carpenter, error)
	ListCarpenters(activeOnly bool) ([]CarpenterWithStats, error)
	UpdateCarpenter(actor Actor, id uint, input CarpenterInput) (*models.Carpenter, error)
	DeleteCarpenter(actor Actor, id uint) error
}

// DeliveryInput holds delivery fields. Pointers are optional on update.
type DeliveryInput struct {
	OrderID      *uint
	DeliveryDate *time.Time
	Status       *models.DeliveryStatus
	Address      *string
	Notes        *string
}

// DeliveryFilter holds optional filters for listing deliveries.
type DeliveryFilter struct {
	OrderID *uint
	Status  *models.DeliveryStatus
	From    *time.Time
	To      *time.Time
}

// DeliveryServicer defines the contract for delivery-related business logic.
type DeliveryServicer interface {
	CreateDelivery(actor Actor, input DeliveryInput) (*models.Delivery, error)
	GetDelivery(id uint) (*models.Delivery, error)
	ListDeliveries(filter DeliveryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Delivery], error)
	UpdateDelivery(actor Actor, id uint, input DeliveryInput) (*models.Delivery, error)
	DeleteDelivery(actor Actor, id uint) error
}

// SettingServicer defines the contract for system settings.
type SettingServicer interface {
	ListSettings() ([]models.Setting, error)
	GetSetting(key string) (*models.Setting, error)
	UpsertSetting(actor Actor, key, value, description string) (*models.Setting, error)
	DeleteSetting(actor Actor, key string) error
	BackendURL() (string, error)
}
