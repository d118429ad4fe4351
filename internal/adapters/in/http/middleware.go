package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gasdelivery/internal/adapters/in/http/api"
	"gasdelivery/internal/adapters/out/identity"
	"gasdelivery/internal/core/domain/model/driver"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RoleAdmin is the principal role of a caller authenticated with the
// administrator basic credentials.
const RoleAdmin = "admin"

var (
	errMissingCredentials = errors.New("missing credentials")
	errBadCredentials     = errors.New("bad credentials")
)

// TokenVerifier checks driver bearer tokens.
type TokenVerifier interface {
	Verify(token string) (identity.Principal, error)
}

// AdminCredentials are the static basic-auth credentials of the console.
type AdminCredentials struct {
	User     string
	Password string
}

type echoContextKey struct{}

const principalKey = "principal"

// Authenticator resolves the security schemes declared in the API document.
type Authenticator struct {
	admin  AdminCredentials
	tokens TokenVerifier
}

func NewAuthenticator(admin AdminCredentials, tokens TokenVerifier) *Authenticator {
	return &Authenticator{admin: admin, tokens: tokens}
}

// Authenticate is an openapi3filter.AuthenticationFunc. On success the
// principal is stashed on the echo context carried by ctx; RequestValidator
// moves it into the request context once the whole request is valid.
func (a *Authenticator) Authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	c, ok := ctx.Value(echoContextKey{}).(echo.Context)
	if !ok {
		return errors.New("echo context is missing")
	}

	var (
		principal identity.Principal
		err       error
	)
	switch input.SecuritySchemeName {
	case "adminAuth":
		principal, err = a.basic(c.Request())
	case "driverAuth":
		principal, err = a.bearer(c.Request())
	default:
		err = errors.New("unsupported security scheme")
	}
	if err != nil {
		return err
	}

	c.Set(principalKey, principal)
	return nil
}

func (a *Authenticator) basic(r *http.Request) (identity.Principal, error) {
	user, password, ok := r.BasicAuth()
	if !ok {
		return identity.Principal{}, errMissingCredentials
	}
	if a.admin.User == "" ||
		subtle.ConstantTimeCompare([]byte(user), []byte(a.admin.User)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(a.admin.Password)) != 1 {
		return identity.Principal{}, errBadCredentials
	}
	return identity.Principal{Role: RoleAdmin}, nil
}

func (a *Authenticator) bearer(r *http.Request) (identity.Principal, error) {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return identity.Principal{}, errMissingCredentials
	}
	principal, err := a.tokens.Verify(token)
	if err != nil {
		return identity.Principal{}, err
	}
	if principal.Role != driver.Role {
		return identity.Principal{}, errBadCredentials
	}
	return principal, nil
}

// RequestValidator checks every request that matches an API operation
// against the document, including its security requirements. Paths outside
// the document pass through untouched.
func RequestValidator(doc *openapi3.T, auth *Authenticator) (echo.MiddlewareFunc, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: auth.Authenticate,
		MultiError:         false,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				return next(c)
			}

			ctx := context.WithValue(req.Context(), echoContextKey{}, c)
			err = openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			})
			if err != nil {
				var secErr *openapi3filter.SecurityRequirementsError
				if errors.As(err, &secErr) {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
			}

			// req carries the body buffered by the validator.
			if principal, ok := c.Get(principalKey).(identity.Principal); ok {
				c.SetRequest(req.WithContext(identity.WithPrincipal(req.Context(), principal)))
			}
			return next(c)
		}
	}, nil
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return err.Error()
}

// RequestLogger writes one structured record per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "Request handled", attrs...)
			return nil
		},
	})
}

// ErrorHandler renders every error as api.Error.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else {
			logger.Error("Unhandled error", "error", err, "uri", c.Request().RequestURI)
		}

		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="dispatch"`)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, api.Error{Code: code, Message: message})
		}
		if err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}
