package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gasdelivery/internal/adapters/in/http/api"
	"gasdelivery/internal/adapters/out/identity"
	"gasdelivery/internal/core/application/routing"
	"gasdelivery/internal/core/application/tracking"
	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/application/usecases/queries"
	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// DefaultKeepAlive is the comment interval on idle event streams.
const DefaultKeepAlive = 15 * time.Second

type (
	// Commands are the state-changing use cases exposed over HTTP.
	Commands struct {
		CreateOrder    commands.CreateOrderCommandHandler
		AssignDriver   commands.AssignDriverCommandHandler
		CancelOrder    commands.CancelOrderCommandHandler
		ResolveOrder   commands.ResolveOrderCommandHandler
		RegisterDriver commands.RegisterDriverCommandHandler
	}

	// Queries are the read use cases exposed over HTTP.
	Queries struct {
		GetOrder            queries.GetOrderQueryHandler
		GetOrders           queries.GetOrdersQueryHandler
		GetDriver           queries.GetDriverQueryHandler
		GetAvailableDrivers queries.GetAvailableDriversQueryHandler
	}

	LocationTracker interface {
		Report(ctx context.Context, driverID kernel.UUID, latitude, longitude float64) error
		Track(ctx context.Context, orderID kernel.UUID) (<-chan tracking.TrackPoint, error)
	}

	OrderSubscriber interface {
		Subscribe(ctx context.Context, filter order.Filter) (<-chan tracking.OrderUpdate, error)
	}

	RouteAdvisor interface {
		RouteForOrder(ctx context.Context, orderID kernel.UUID) (routing.Plan, error)
	}

	// Login authenticates drivers and issues their bearer tokens.
	Login interface {
		Authenticate(ctx context.Context, login, secret string) (identity.Principal, error)
		Issue(p identity.Principal) (string, time.Time, error)
	}
)

// Server implements api.ServerInterface.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	commands  Commands
	queries   Queries
	locations LocationTracker
	feed      OrderSubscriber
	routes    RouteAdvisor
	login     Login
	logger    *slog.Logger
	keepAlive time.Duration
}

// NewServer creates a new HTTP server with the required use cases.
func NewServer(
	cmds Commands,
	qs Queries,
	locations LocationTracker,
	feed OrderSubscriber,
	routes RouteAdvisor,
	login Login,
	logger *slog.Logger,
) *Server {
	return &Server{
		commands:  cmds,
		queries:   qs,
		locations: locations,
		feed:      feed,
		routes:    routes,
		login:     login,
		logger:    logger.With("component", "http_server"),
		keepAlive: DefaultKeepAlive,
	}
}

var _ api.ServerInterface = (*Server)(nil)

// CreateOrder handles POST /api/v1/orders - places a new Pending order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body api.CreateOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	orderID := kernel.NewUUID()
	if body.Id != nil {
		id, err := toKernelUUID(*body.Id)
		if err != nil {
			return s.fail(err)
		}
		orderID = id
	}

	var pin *kernel.Location
	if body.Location != nil {
		location, err := kernel.NewLocation(body.Location.Latitude, body.Location.Longitude)
		if err != nil {
			return s.fail(err)
		}
		pin = &location
	}

	lines := make([]commands.OrderLine, 0, len(body.Items))
	for _, item := range body.Items {
		lines = append(lines, commands.OrderLine{
			ProductID: item.ProductId,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	cmd, err := commands.NewCreateOrderCommand(
		orderID,
		body.CustomerName,
		body.CustomerPhone,
		body.Address,
		pin,
		lines,
		string(body.PaymentMethod),
		deref(body.Notes),
	)
	if err != nil {
		return s.fail(err)
	}

	reqCtx := ctx.Request().Context()
	if err = s.commands.CreateOrder.Handle(reqCtx, cmd); err != nil {
		return s.fail(err)
	}

	return s.writeOrder(ctx, http.StatusCreated, orderID)
}

// GetOrders handles GET /api/v1/orders. Drivers only see their own orders.
func (s *Server) GetOrders(ctx echo.Context, params api.GetOrdersParams) error {
	statuses, err := toStatuses(params.Status)
	if err != nil {
		return s.fail(err)
	}

	var driverID *kernel.UUID
	if params.DriverId != nil {
		id, err := toKernelUUID(*params.DriverId)
		if err != nil {
			return s.fail(err)
		}
		driverID = &id
	}

	if principal, ok := identity.FromContext(ctx.Request().Context()); ok && principal.Role == driver.Role {
		if driverID != nil && !driverID.IsEqual(principal.UserID) {
			return forbidden("Drivers can only list their own orders")
		}
		own := principal.UserID
		driverID = &own
	}

	query, err := queries.NewGetOrdersQuery(statuses, driverID)
	if err != nil {
		return s.fail(err)
	}

	views, err := s.queries.GetOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(err)
	}

	response := make([]api.Order, len(views))
	for i, view := range views {
		response[i] = toAPIOrder(view)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}
	return s.writeOrder(ctx, http.StatusOK, id)
}

// AssignDriver handles POST /api/v1/orders/{orderId}/assign.
func (s *Server) AssignDriver(ctx echo.Context, orderId openapi_types.UUID) error {
	var body api.AssignDriverJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}
	driverID, err := toKernelUUID(body.DriverId)
	if err != nil {
		return s.fail(err)
	}

	cmd, err := commands.NewAssignDriverCommand(id, driverID)
	if err != nil {
		return s.fail(err)
	}
	if err = s.commands.AssignDriver.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}

	cmd, err := commands.NewCancelOrderCommand(id)
	if err != nil {
		return s.fail(err)
	}
	if err = s.commands.CancelOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ResolveOrder handles POST /api/v1/orders/{orderId}/resolve. A driver may
// only resolve the order assigned to them.
func (s *Server) ResolveOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	var body api.ResolveOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}
	outcome, err := order.ParseStatus(string(body.Outcome))
	if err != nil {
		return s.fail(err)
	}

	var actor *kernel.UUID
	if principal, ok := identity.FromContext(ctx.Request().Context()); ok && principal.Role == driver.Role {
		actor = &principal.UserID
	}

	cmd, err := commands.NewResolveOrderCommand(id, outcome, actor)
	if err != nil {
		return s.fail(err)
	}
	if err = s.commands.ResolveOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetOrderRoute handles GET /api/v1/orders/{orderId}/route. A provider
// outage is a successful response with available=false.
func (s *Server) GetOrderRoute(ctx echo.Context, orderId openapi_types.UUID) error {
	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}

	plan, err := s.routes.RouteForOrder(ctx.Request().Context(), id)
	if err != nil {
		return s.fail(err)
	}

	return ctx.JSON(http.StatusOK, toAPIRoute(plan))
}

// RegisterDriver handles POST /api/v1/drivers.
func (s *Server) RegisterDriver(ctx echo.Context) error {
	var body api.RegisterDriverJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	cmd, err := commands.NewRegisterDriverCommand(body.Name, body.Phone, deref(body.Vehicle))
	if err != nil {
		return s.fail(err)
	}

	reqCtx := ctx.Request().Context()
	driverID, err := s.commands.RegisterDriver.Handle(reqCtx, cmd)
	if err != nil {
		return s.fail(err)
	}

	return s.writeDriver(ctx, http.StatusCreated, driverID)
}

// GetAvailableDrivers handles GET /api/v1/drivers/available. With orderId the
// list is ranked by distance to that order's pin.
func (s *Server) GetAvailableDrivers(ctx echo.Context, params api.GetAvailableDriversParams) error {
	query := queries.NewGetAvailableDriversQuery()
	if params.OrderId != nil {
		orderID, err := toKernelUUID(*params.OrderId)
		if err != nil {
			return s.fail(err)
		}
		if query, err = queries.NewGetAvailableDriversNearOrderQuery(orderID); err != nil {
			return s.fail(err)
		}
	}

	views, err := s.queries.GetAvailableDrivers.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(err)
	}

	response := make([]api.Driver, len(views))
	for i, view := range views {
		response[i] = toAPIDriver(view)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetDriver handles GET /api/v1/drivers/{driverId}. Drivers may only read
// their own profile.
func (s *Server) GetDriver(ctx echo.Context, driverId openapi_types.UUID) error {
	id, err := toKernelUUID(driverId)
	if err != nil {
		return s.fail(err)
	}
	if err = requireSelfOrAdmin(ctx, id); err != nil {
		return err
	}
	return s.writeDriver(ctx, http.StatusOK, id)
}

// ReportLocation handles POST /api/v1/drivers/{driverId}/location.
func (s *Server) ReportLocation(ctx echo.Context, driverId openapi_types.UUID) error {
	var body api.ReportLocationJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	id, err := toKernelUUID(driverId)
	if err != nil {
		return s.fail(err)
	}
	if err = requireSelfOrAdmin(ctx, id); err != nil {
		return err
	}

	if err = s.locations.Report(ctx.Request().Context(), id, body.Latitude, body.Longitude); err != nil {
		return s.fail(err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// DriverLogin handles POST /api/v1/auth/driver/login.
func (s *Server) DriverLogin(ctx echo.Context) error {
	var body api.DriverLoginJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest("Invalid request body")
	}

	principal, err := s.login.Authenticate(ctx.Request().Context(), body.Login, body.Secret)
	if err != nil {
		return s.fail(err)
	}
	if principal.Role != driver.Role {
		return s.fail(ports.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.login.Issue(principal)
	if err != nil {
		return s.fail(err)
	}

	return ctx.JSON(http.StatusOK, api.Token{Token: token, ExpiresAt: expiresAt})
}

func (s *Server) writeOrder(ctx echo.Context, status int, id kernel.UUID) error {
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(err)
	}
	view, err := s.queries.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(err)
	}
	return ctx.JSON(status, toAPIOrder(view))
}

func (s *Server) writeDriver(ctx echo.Context, status int, id kernel.UUID) error {
	query, err := queries.NewGetDriverQuery(id)
	if err != nil {
		return s.fail(err)
	}
	view, err := s.queries.GetDriver.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(err)
	}
	return ctx.JSON(status, toAPIDriver(view))
}

func requireSelfOrAdmin(ctx echo.Context, id kernel.UUID) error {
	principal, ok := identity.FromContext(ctx.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if principal.Role == RoleAdmin || principal.UserID.IsEqual(id) {
		return nil
	}
	return forbidden("Drivers can only act on their own profile")
}
