package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpin "gasdelivery/internal/adapters/in/http"
	"gasdelivery/internal/adapters/in/http/api"
	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/adapters/out/identity"
	"gasdelivery/internal/adapters/out/memory"
	"gasdelivery/internal/core/application/routing"
	"gasdelivery/internal/core/application/tracking"
	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/application/usecases/queries"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

const (
	adminUser     = "console"
	adminPassword = "s3cret-console"
	driverPhone   = "+254711000002"
)

type orderUoWs struct{ f *memory.UnitOfWorkFactory }

func (u orderUoWs) Create() commands.OrderUoW { return u.f.Create() }

type driverUoWs struct{ f *memory.UnitOfWorkFactory }

func (u driverUoWs) Create() commands.DriverUoW { return u.f.Create() }

type uows struct{ f *memory.UnitOfWorkFactory }

func (u uows) Create() commands.UoW { return u.f.Create() }

type straightLine struct{}

func (straightLine) Route(_ context.Context, from, to kernel.Location) (ports.Route, error) {
	meters, err := from.DistanceTo(to)
	if err != nil {
		return ports.Route{}, err
	}
	return ports.Route{
		Geometry:       []kernel.Location{from, to},
		DistanceMeters: meters,
		Duration:       90 * time.Second,
	}, nil
}

type login struct {
	*identity.Provider
	*identity.Tokens
}

type ServerTestSuite struct {
	suite.Suite
	bus  *eventbus.LocalBus
	echo *echo.Echo
}

func (s *ServerTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	s.bus = eventbus.NewLocalBus(eventbus.DefaultBuffer)
	factory := memory.NewUnitOfWorkFactory(store, s.bus, logger)
	orders := memory.NewOrderRepository(store)
	drivers := memory.NewDriverRepository(store)

	provider := identity.NewProvider(identity.NewMemoryStore(), 4)
	tokens, err := identity.NewTokens("test-signing-key", time.Hour)
	s.Require().NoError(err)

	advisor := routing.NewAdvisor(straightLine{}, orders, drivers, time.Second, logger)
	recorder := commands.NewRecordPositionCommandHandler(driverUoWs{factory})

	server := httpin.NewServer(
		httpin.Commands{
			CreateOrder:    commands.NewCreateOrderCommandHandler(orderUoWs{factory}),
			AssignDriver:   commands.NewAssignDriverCommandHandler(uows{factory}),
			CancelOrder:    commands.NewCancelOrderCommandHandler(orderUoWs{factory}),
			ResolveOrder:   commands.NewResolveOrderCommandHandler(orderUoWs{factory}, nil),
			RegisterDriver: commands.NewRegisterDriverCommandHandler(driverUoWs{factory}, provider),
		},
		httpin.Queries{
			GetOrder:            queries.NewGetOrderQueryHandler(orders),
			GetOrders:           queries.NewGetOrdersQueryHandler(orders),
			GetDriver:           queries.NewGetDriverQueryHandler(drivers),
			GetAvailableDrivers: queries.NewGetAvailableDriversQueryHandler(drivers, orders),
		},
		tracking.NewLocationSync(recorder, orders, drivers, s.bus, advisor, logger),
		tracking.NewOrderFeed(orders, s.bus, logger),
		advisor,
		login{provider, tokens},
		logger,
	)

	auth := httpin.NewAuthenticator(httpin.AdminCredentials{User: adminUser, Password: adminPassword}, tokens)
	s.echo, err = httpin.NewEcho(server, auth, logger)
	s.Require().NoError(err)
}

func (s *ServerTestSuite) TearDownTest() {
	s.bus.Close()
}

type request struct {
	method string
	path   string
	body   string
	admin  bool
	bearer string
}

func (s *ServerTestSuite) do(r request) *httptest.ResponseRecorder {
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.admin {
		req.SetBasicAuth(adminUser, adminPassword)
	}
	if r.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.bearer)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](s *ServerTestSuite, rec *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const newOrderBody = `{
	"customerName": "Amina",
	"customerPhone": "+254700000001",
	"address": "Moi Avenue 12",
	"location": {"latitude": -1.284, "longitude": 36.818},
	"items": [{"productId": "lpg-13kg", "name": "13kg LPG refill", "quantity": 2, "unitPrice": 310000}],
	"paymentMethod": "cash"
}`

func (s *ServerTestSuite) placeOrder() api.Order {
	rec := s.do(request{method: http.MethodPost, path: "/api/v1/orders", body: newOrderBody})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.Order](s, rec)
}

func (s *ServerTestSuite) registerDriver() api.Driver {
	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers",
		body:   fmt.Sprintf(`{"name": "Otieno", "phone": %q, "vehicle": "Motorbike"}`, driverPhone),
		admin:  true,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.Driver](s, rec)
}

func (s *ServerTestSuite) driverToken() string {
	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/auth/driver/login",
		body:   fmt.Sprintf(`{"login": %q, "secret": %q}`, driverPhone, driverPhone),
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.Token](s, rec).Token
}

func (s *ServerTestSuite) assign(orderID, driverID fmt.Stringer) *httptest.ResponseRecorder {
	return s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/orders/" + orderID.String() + "/assign",
		body:   fmt.Sprintf(`{"driverId": %q}`, driverID.String()),
		admin:  true,
	})
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(request{method: http.MethodGet, path: "/health"})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestCreateAndGetOrder() {
	created := s.placeOrder()
	s.Equal(api.StatusPending, created.Status)
	s.Equal(int64(620000), created.Total)
	s.Nil(created.DriverId)

	rec := s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + created.Id.String()})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(created.Id, decode[api.Order](s, rec).Id)
}

func (s *ServerTestSuite) TestCreateOrder_RejectsInvalidBody() {
	tests := []struct {
		name string
		body string
	}{
		{"missing items", `{"customerName": "A", "customerPhone": "1", "address": "x", "paymentMethod": "cash"}`},
		{"unknown payment", `{"customerName": "A", "customerPhone": "1", "address": "x", "items": [], "paymentMethod": "card"}`},
		{"empty basket", `{"customerName": "A", "customerPhone": "1", "address": "x", "items": [], "paymentMethod": "cash"}`},
		{"zero quantity", `{"customerName": "A", "customerPhone": "1", "address": "x",
			"items": [{"productId": "p", "name": "n", "quantity": 0, "unitPrice": 1}], "paymentMethod": "cash"}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(request{method: http.MethodPost, path: "/api/v1/orders", body: tt.body})
			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
			s.Equal(http.StatusBadRequest, decode[api.Error](s, rec).Code)
		})
	}
}

func (s *ServerTestSuite) TestGetOrder_NotFound() {
	rec := s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + kernel.NewUUID().String()})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestGetOrder_MalformedID() {
	rec := s.do(request{method: http.MethodGet, path: "/api/v1/orders/not-a-uuid"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestAdminRoutesRequireCredentials() {
	rec := s.do(request{method: http.MethodGet, path: "/api/v1/drivers/available"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/available", nil)
	req.SetBasicAuth(adminUser, "wrong")
	wrong := httptest.NewRecorder()
	s.echo.ServeHTTP(wrong, req)
	s.Equal(http.StatusUnauthorized, wrong.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/drivers/available", admin: true})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestAvailableDrivers_RankedByOrder() {
	o := s.placeOrder()
	d := s.registerDriver()
	token := s.driverToken()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + d.Id.String() + "/location",
		body:   `{"latitude": -1.283, "longitude": 36.817}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/drivers/available?orderId=" + o.Id.String(), admin: true})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	ranked := decode[[]api.Driver](s, rec)
	s.Require().Len(ranked, 1)
	s.Require().NotNil(ranked[0].DistanceMeters)
	s.InDelta(157, *ranked[0].DistanceMeters, 5)

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/drivers/available?orderId=" + kernel.NewUUID().String(), admin: true})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestDriverLogin_WrongSecret() {
	s.registerDriver()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/auth/driver/login",
		body:   fmt.Sprintf(`{"login": %q, "secret": "guessing-game"}`, driverPhone),
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerTestSuite) TestRegisterDriver_DuplicatePhone() {
	s.registerDriver()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers",
		body:   fmt.Sprintf(`{"name": "Someone else", "phone": %q}`, driverPhone),
		admin:  true,
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *ServerTestSuite) TestDispatchLifecycle() {
	o := s.placeOrder()
	d := s.registerDriver()
	s.True(d.Available)
	token := s.driverToken()

	rec := s.assign(o.Id, d.Id)
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	second := s.placeOrder()
	rec = s.assign(second.Id, d.Id)
	s.Equal(http.StatusConflict, rec.Code, "driver already holds an in-progress order")

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/drivers/available", admin: true})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(decode[[]api.Driver](s, rec))

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/orders?status=InProgress", bearer: token})
	s.Require().Equal(http.StatusOK, rec.Code)
	mine := decode[[]api.Order](s, rec)
	s.Require().Len(mine, 1)
	s.Equal(o.Id, mine[0].Id)

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/orders/" + o.Id.String() + "/resolve",
		body:   `{"outcome": "Delivered"}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/orders/" + o.Id.String() + "/resolve",
		body:   `{"outcome": "Declined"}`,
		bearer: token,
	})
	s.Equal(http.StatusConflict, rec.Code, "terminal orders cannot be resolved again")

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + o.Id.String()})
	delivered := decode[api.Order](s, rec)
	s.Equal(api.StatusDelivered, delivered.Status)
	s.Require().NotNil(delivered.DriverId)
	s.Equal(d.Id, *delivered.DriverId)
}

func (s *ServerTestSuite) TestResolve_OtherDriverIsForbidden() {
	o := s.placeOrder()
	d := s.registerDriver()
	s.driverToken()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers",
		body:   `{"name": "Wanjiru", "phone": "+254722000003"}`,
		admin:  true,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/auth/driver/login",
		body:   `{"login": "+254722000003", "secret": "+254722000003"}`,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	otherToken := decode[api.Token](s, rec).Token

	s.Require().Equal(http.StatusNoContent, s.assign(o.Id, d.Id).Code)

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/orders/" + o.Id.String() + "/resolve",
		body:   `{"outcome": "Delivered"}`,
		bearer: otherToken,
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ServerTestSuite) TestCancel() {
	o := s.placeOrder()

	rec := s.do(request{method: http.MethodPost, path: "/api/v1/orders/" + o.Id.String() + "/cancel", admin: true})
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/api/v1/orders/" + o.Id.String() + "/cancel", admin: true})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *ServerTestSuite) TestReportLocation_OnlyForSelf() {
	d := s.registerDriver()
	token := s.driverToken()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + kernel.NewUUID().String() + "/location",
		body:   `{"latitude": -1.283, "longitude": 36.817}`,
		bearer: token,
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + d.Id.String() + "/location",
		body:   `{"latitude": 91, "longitude": 36.817}`,
		bearer: token,
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + d.Id.String() + "/location",
		body:   `{"latitude": -1.283, "longitude": 36.817}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/drivers/" + d.Id.String(), bearer: token})
	s.Require().Equal(http.StatusOK, rec.Code)
	me := decode[api.Driver](s, rec)
	s.Require().NotNil(me.Position)
	s.InDelta(-1.283, me.Position.Latitude, 1e-9)
}

func (s *ServerTestSuite) TestRoute() {
	o := s.placeOrder()

	rec := s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + o.Id.String() + "/route"})
	s.Equal(http.StatusConflict, rec.Code, "pending orders have no route")

	d := s.registerDriver()
	token := s.driverToken()
	s.Require().Equal(http.StatusNoContent, s.assign(o.Id, d.Id).Code)
	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + d.Id.String() + "/location",
		body:   `{"latitude": -1.283, "longitude": 36.817}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + o.Id.String() + "/route"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	route := decode[api.Route](s, rec)
	s.True(route.Available)
	s.Require().NotNil(route.EtaMinutes)
	s.Equal(2, *route.EtaMinutes)
}

func (s *ServerTestSuite) TestTrackOrder_StreamsPositionsUntilDelivered() {
	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	o := s.placeOrder()
	d := s.registerDriver()
	token := s.driverToken()
	s.Require().Equal(http.StatusNoContent, s.assign(o.Id, d.Id).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/orders/"+o.Id.String()+"/track", nil)
	s.Require().NoError(err)
	res, err := srv.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Require().Equal(http.StatusOK, res.StatusCode)
	s.Contains(res.Header.Get(echo.HeaderContentType), "text/event-stream")

	events := make(chan string, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
	}()

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/drivers/" + d.Id.String() + "/location",
		body:   `{"latitude": -1.283, "longitude": 36.817}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code)
	s.Equal("position", s.next(events))

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/api/v1/orders/" + o.Id.String() + "/resolve",
		body:   `{"outcome": "Delivered"}`,
		bearer: token,
	})
	s.Require().Equal(http.StatusNoContent, rec.Code)
	s.Equal("end", s.next(events))
}

func (s *ServerTestSuite) next(events <-chan string) string {
	select {
	case name, ok := <-events:
		s.Require().True(ok, "stream closed early")
		return name
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
		return ""
	}
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
