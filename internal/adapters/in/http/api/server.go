package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Place an order
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// List orders
	// (GET /api/v1/orders)
	GetOrders(ctx echo.Context, params GetOrdersParams) error
	// Stream order changes
	// (GET /api/v1/orders/stream)
	StreamOrders(ctx echo.Context, params StreamOrdersParams) error
	// Get an order
	// (GET /api/v1/orders/{orderId})
	GetOrder(ctx echo.Context, orderId openapi_types.UUID) error
	// Assign a driver to a pending order
	// (POST /api/v1/orders/{orderId}/assign)
	AssignDriver(ctx echo.Context, orderId openapi_types.UUID) error
	// Decline a pending order
	// (POST /api/v1/orders/{orderId}/cancel)
	CancelOrder(ctx echo.Context, orderId openapi_types.UUID) error
	// Mark an in-progress order delivered or declined
	// (POST /api/v1/orders/{orderId}/resolve)
	ResolveOrder(ctx echo.Context, orderId openapi_types.UUID) error
	// Stream the driver position of an order
	// (GET /api/v1/orders/{orderId}/track)
	TrackOrder(ctx echo.Context, orderId openapi_types.UUID) error
	// Get the current route of an order
	// (GET /api/v1/orders/{orderId}/route)
	GetOrderRoute(ctx echo.Context, orderId openapi_types.UUID) error
	// Register a driver
	// (POST /api/v1/drivers)
	RegisterDriver(ctx echo.Context) error
	// List drivers without an in-progress order
	// (GET /api/v1/drivers/available)
	GetAvailableDrivers(ctx echo.Context, params GetAvailableDriversParams) error
	// Get a driver
	// (GET /api/v1/drivers/{driverId})
	GetDriver(ctx echo.Context, driverId openapi_types.UUID) error
	// Report the caller's position
	// (POST /api/v1/drivers/{driverId}/location)
	ReportLocation(ctx echo.Context, driverId openapi_types.UUID) error
	// Exchange driver credentials for a bearer token
	// (POST /api/v1/auth/driver/login)
	DriverLogin(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	var err error
	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.CreateOrder(ctx)
	return err
}

// GetOrders converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrders(ctx echo.Context) error {
	var err error
	ctx.Set(AdminAuthScopes, []string{})

	ctx.Set(DriverAuthScopes, []string{})

	// Parameter object where we will unmarshal all parameters from the context
	var params GetOrdersParams
	// ------------- Optional query parameter "status" -------------

	err = runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}

	// ------------- Optional query parameter "driverId" -------------

	err = runtime.BindQueryParameter("form", true, false, "driverId", ctx.QueryParams(), &params.DriverId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter driverId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetOrders(ctx, params)
	return err
}

// StreamOrders converts echo context to params.
func (w *ServerInterfaceWrapper) StreamOrders(ctx echo.Context) error {
	var err error
	ctx.Set(AdminAuthScopes, []string{})

	// Parameter object where we will unmarshal all parameters from the context
	var params StreamOrdersParams
	// ------------- Optional query parameter "status" -------------

	err = runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.StreamOrders(ctx, params)
	return err
}

// GetOrder converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetOrder(ctx, orderId)
	return err
}

// AssignDriver converts echo context to params.
func (w *ServerInterfaceWrapper) AssignDriver(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	ctx.Set(AdminAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.AssignDriver(ctx, orderId)
	return err
}

// CancelOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CancelOrder(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	ctx.Set(AdminAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.CancelOrder(ctx, orderId)
	return err
}

// ResolveOrder converts echo context to params.
func (w *ServerInterfaceWrapper) ResolveOrder(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	ctx.Set(AdminAuthScopes, []string{})

	ctx.Set(DriverAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.ResolveOrder(ctx, orderId)
	return err
}

// TrackOrder converts echo context to params.
func (w *ServerInterfaceWrapper) TrackOrder(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.TrackOrder(ctx, orderId)
	return err
}

// GetOrderRoute converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrderRoute(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetOrderRoute(ctx, orderId)
	return err
}

// RegisterDriver converts echo context to params.
func (w *ServerInterfaceWrapper) RegisterDriver(ctx echo.Context) error {
	var err error
	ctx.Set(AdminAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.RegisterDriver(ctx)
	return err
}

// GetAvailableDrivers converts echo context to params.
func (w *ServerInterfaceWrapper) GetAvailableDrivers(ctx echo.Context) error {
	var err error
	ctx.Set(AdminAuthScopes, []string{})

	// Parameter object where we will unmarshal all parameters from the context
	var params GetAvailableDriversParams
	// ------------- Optional query parameter "orderId" -------------

	err = runtime.BindQueryParameter("form", true, false, "orderId", ctx.QueryParams(), &params.OrderId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetAvailableDrivers(ctx, params)
	return err
}

// GetDriver converts echo context to params.
func (w *ServerInterfaceWrapper) GetDriver(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "driverId" -------------
	var driverId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "driverId", ctx.Param("driverId"), &driverId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter driverId: %s", err))
	}

	ctx.Set(AdminAuthScopes, []string{})

	ctx.Set(DriverAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetDriver(ctx, driverId)
	return err
}

// ReportLocation converts echo context to params.
func (w *ServerInterfaceWrapper) ReportLocation(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "driverId" -------------
	var driverId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "driverId", ctx.Param("driverId"), &driverId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter driverId: %s", err))
	}

	ctx.Set(DriverAuthScopes, []string{})

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.ReportLocation(ctx, driverId)
	return err
}

// DriverLogin converts echo context to params.
func (w *ServerInterfaceWrapper) DriverLogin(ctx echo.Context) error {
	var err error
	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.DriverLogin(ctx)
	return err
}

// EchoRouter is the subset of echo.Echo and echo.Group used for registration.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends BaseURL to the
// paths, so that the paths can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/api/v1/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/api/v1/orders", wrapper.GetOrders)
	router.GET(baseURL+"/api/v1/orders/stream", wrapper.StreamOrders)
	router.GET(baseURL+"/api/v1/orders/:orderId", wrapper.GetOrder)
	router.POST(baseURL+"/api/v1/orders/:orderId/assign", wrapper.AssignDriver)
	router.POST(baseURL+"/api/v1/orders/:orderId/cancel", wrapper.CancelOrder)
	router.POST(baseURL+"/api/v1/orders/:orderId/resolve", wrapper.ResolveOrder)
	router.GET(baseURL+"/api/v1/orders/:orderId/track", wrapper.TrackOrder)
	router.GET(baseURL+"/api/v1/orders/:orderId/route", wrapper.GetOrderRoute)
	router.POST(baseURL+"/api/v1/drivers", wrapper.RegisterDriver)
	router.GET(baseURL+"/api/v1/drivers/available", wrapper.GetAvailableDrivers)
	router.GET(baseURL+"/api/v1/drivers/:driverId", wrapper.GetDriver)
	router.POST(baseURL+"/api/v1/drivers/:driverId/location", wrapper.ReportLocation)
	router.POST(baseURL+"/api/v1/auth/driver/login", wrapper.DriverLogin)
}
