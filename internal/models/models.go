package models

import (
	"time"

	"github.com/casamorales/restaurant-backend/internal/money"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"

	TableStatusAvailable = "available"
	TableStatusReserved  = "reserved"
	TableStatusOccupied  = "occupied"
)

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Name         string    `gorm:"not null"                 json:"name"`
	RoleID       uint      `gorm:"not null"                 json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Staff struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	RoleID       uint      `gorm:"not null"                 json:"role_id"`
	RfcNumber    string    `gorm:"unique;not null;size:13"  json:"rfc_number"`
	IsActive     bool      `gorm:"not null;default:true"    json:"is_active"`
	Email        *string   `gorm:"unique"                   json:"email"`
	PasswordHash *string   `json:"-"`
	UserID       *uint     `json:"user_id"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description"`
}

type MenuItem struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"not null"                 json:"name"`
	Description string      `json:"description"`
	Price       money.Cents `gorm:"not null"                 json:"price"`
	ImageURL    string      `json:"image_url"`
	InStock     bool        `gorm:"not null;default:true"    json:"in_stock"`
	CategoryID  uint        `gorm:"not null;index"           json:"category_id"`
	SearchText  string      `gorm:"index"                    json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RestaurantTable avoids colliding with SQL's TABLE keyword in Go code;
// the gorm table name stays "tables" like the legacy schema.
type RestaurantTable struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Number    int       `gorm:"unique;not null"            json:"number"`
	Seats     int       `gorm:"not null"                   json:"seats"`
	Status    string    `gorm:"not null;default:available" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RestaurantTable) TableName() string { return "tables" }

type Order struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID        *uint       `gorm:"index"                    json:"table_id"`
	StaffID        *uint       `gorm:"index"                    json:"staff_id"`
	UserID         *uint       `gorm:"index"                    json:"user_id"`
	Status         string      `gorm:"not null;default:active"  json:"status"`
	Subtotal       money.Cents `gorm:"not null;default:0"       json:"subtotal"`
	TaxRate        float64     `gorm:"not null;default:0.16"    json:"tax_rate"`
	Tax            money.Cents `gorm:"not null;default:0"       json:"tax"`
	Total          money.Cents `gorm:"not null;default:0"       json:"total_amount"`
	Notes          string      `json:"notes"`
	WithVatInvoice bool        `gorm:"not null;default:false"   json:"with_vat_invoice"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderItem.Price is captured at order time; later menu price changes
// must not touch historical items.
type OrderItem struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"            json:"id"`
	OrderID    uint        `gorm:"not null;index"                      json:"order_id"`
	MenuItemID uint        `gorm:"not null;index"                      json:"menu_item_id"`
	Quantity   int         `gorm:"not null;default:1;check:quantity>0" json:"quantity"`
	Price      money.Cents `gorm:"not null"                            json:"price"`
	Notes      string      `json:"notes"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"unique;not null"          json:"-"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
}
