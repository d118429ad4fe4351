package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gasdelivery/internal/adapters/in/http/api"
	"gasdelivery/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// eventStream writes server-sent events to one response.
type eventStream struct {
	res *echo.Response
}

func openEventStream(ctx echo.Context) *eventStream {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()
	return &eventStream{res: res}
}

func (s *eventStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(s.res, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

func (s *eventStream) ping() error {
	if _, err := fmt.Fprint(s.res, ": ping\n\n"); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

// PositionEvent is the payload of a "position" event.
type PositionEvent struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reportedAt"`
}

// TrackOrder handles GET /api/v1/orders/{orderId}/track. Each driver
// position is a "position" event. The stream ends with an "end" event when
// the order is no longer in progress; for such orders it ends immediately.
func (s *Server) TrackOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	id, err := toKernelUUID(orderId)
	if err != nil {
		return s.fail(err)
	}

	reqCtx := ctx.Request().Context()
	points, err := s.locations.Track(reqCtx, id)
	if err != nil {
		return s.fail(err)
	}

	stream := openEventStream(ctx)
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-ticker.C:
			if err = stream.ping(); err != nil {
				return nil
			}
		case point, ok := <-points:
			if !ok {
				_ = stream.send("end", map[string]string{"orderId": id.String()})
				return nil
			}
			err = stream.send("position", PositionEvent{
				Latitude:   point.Location.Latitude(),
				Longitude:  point.Location.Longitude(),
				ReportedAt: point.ReportedAt,
			})
			if err != nil {
				return nil
			}
		}
	}
}

// StreamOrders handles GET /api/v1/orders/stream. Matching orders arrive as
// "order" events; an order that stops matching arrives once as "removed".
func (s *Server) StreamOrders(ctx echo.Context, params api.StreamOrdersParams) error {
	statuses, err := toStatuses(params.Status)
	if err != nil {
		return s.fail(err)
	}

	reqCtx := ctx.Request().Context()
	updates, err := s.feed.Subscribe(reqCtx, order.Filter{Statuses: statuses})
	if err != nil {
		return s.fail(err)
	}

	stream := openEventStream(ctx)
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-ticker.C:
			if err = stream.ping(); err != nil {
				return nil
			}
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			event := "order"
			if update.Removed {
				event = "removed"
			}
			if err = stream.send(event, toAPIOrder(update.Order)); err != nil {
				return nil
			}
		}
	}
}
