package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	AdminAuthScopes  = "adminAuth.Scopes"
	DriverAuthScopes = "driverAuth.Scopes"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusDelivered  Status = "Delivered"
	StatusDeclined   Status = "Declined"
)

type NewOrderPaymentMethod string

const (
	Cash        NewOrderPaymentMethod = "cash"
	MobileMoney NewOrderPaymentMethod = "mobile_money"
)

type ResolveOrderJSONBodyOutcome string

const (
	Delivered ResolveOrderJSONBodyOutcome = "Delivered"
	Declined  ResolveOrderJSONBodyOutcome = "Declined"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Item struct {
	Name      string `json:"name"`
	ProductId string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type NewOrder struct {
	Address       string                `json:"address"`
	CustomerName  string                `json:"customerName"`
	CustomerPhone string                `json:"customerPhone"`
	Id            *openapi_types.UUID   `json:"id,omitempty"`
	Items         []Item                `json:"items"`
	Location      *Location             `json:"location,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	PaymentMethod NewOrderPaymentMethod `json:"paymentMethod"`
}

type Order struct {
	Address       string              `json:"address"`
	AssignedAt    *time.Time          `json:"assignedAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	CustomerName  string              `json:"customerName"`
	CustomerPhone string              `json:"customerPhone"`
	DriverId      *openapi_types.UUID `json:"driverId,omitempty"`
	DriverName    *string             `json:"driverName,omitempty"`
	Id            openapi_types.UUID  `json:"id"`
	Items         []Item              `json:"items"`
	Location      *Location           `json:"location,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	PaymentMethod string              `json:"paymentMethod"`
	Status        Status              `json:"status"`
	Total         int64               `json:"total"`
}

type NewDriver struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Vehicle *string `json:"vehicle,omitempty"`
}

type Driver struct {
	Available          bool               `json:"available"`
	DistanceMeters     *float64           `json:"distanceMeters,omitempty"`
	Id                 openapi_types.UUID `json:"id"`
	Name               string             `json:"name"`
	Phone              string             `json:"phone"`
	Position           *Location          `json:"position,omitempty"`
	PositionReportedAt *time.Time         `json:"positionReportedAt,omitempty"`
	Vehicle            *string            `json:"vehicle,omitempty"`
}

type Route struct {
	Available      bool               `json:"available"`
	ComputedAt     *time.Time         `json:"computedAt,omitempty"`
	DistanceMeters *float64           `json:"distanceMeters,omitempty"`
	EtaMinutes     *int               `json:"etaMinutes,omitempty"`
	Geometry       *[]Location        `json:"geometry,omitempty"`
	OrderId        openapi_types.UUID `json:"orderId"`
	Reason         *string            `json:"reason,omitempty"`
}

type Token struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"token"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type GetOrdersParams struct {
	Status   *[]Status           `form:"status,omitempty" json:"status,omitempty"`
	DriverId *openapi_types.UUID `form:"driverId,omitempty" json:"driverId,omitempty"`
}

type GetAvailableDriversParams struct {
	OrderId *openapi_types.UUID `form:"orderId,omitempty" json:"orderId,omitempty"`
}

type StreamOrdersParams struct {
	Status *[]Status `form:"status,omitempty" json:"status,omitempty"`
}

type AssignDriverJSONRequestBody struct {
	DriverId openapi_types.UUID `json:"driverId"`
}

type ResolveOrderJSONRequestBody struct {
	Outcome ResolveOrderJSONBodyOutcome `json:"outcome"`
}

type DriverLoginJSONRequestBody struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
}

type (
	CreateOrderJSONRequestBody    = NewOrder
	RegisterDriverJSONRequestBody = NewDriver
	ReportLocationJSONRequestBody = Location
)
