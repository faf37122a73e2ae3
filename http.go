package invite

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-invite/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON body for every error response
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

const (
	textCodeInternal   = "INTERNAL"
	msgInternalFailure = "An unexpected server error occurred"
)

// ProtectedRouteConfig configures the bearer middleware
type ProtectedRouteConfig struct {
	Resolver    IdentityResolver
	Policy      AccessPolicy
	TokenLookup string
	AuthScheme  string
	Logger      Logger
}

// ProtectedRoute resolves the bearer credential into a Caller, applies the
// access policy and stores the caller in the router locals and the request
// context.
func ProtectedRoute(cfg ProtectedRouteConfig) router.MiddlewareFunc {
	if cfg.Resolver == nil {
		panic("INVITE: protected route requires an IdentityResolver")
	}

	policy := cfg.Policy
	if policy == nil {
		policy = DefaultAccessPolicy{}
	}
	logger := normalizeLogger(cfg.Logger)

	return jwtware.New(jwtware.Config{
		ContextKey:  CallerLocalsKey,
		TokenLookup: cfg.TokenLookup,
		AuthScheme:  cfg.AuthScheme,
		Resolver: func(ctx context.Context, token string) (any, error) {
			caller, err := cfg.Resolver.Resolve(ctx, token)
			if err != nil {
				return nil, err
			}
			if err := Authorize(policy, caller); err != nil {
				return nil, err
			}
			return caller, nil
		},
		ContextEnricher: func(ctx context.Context, identity any) context.Context {
			if caller, ok := identity.(*Caller); ok {
				return WithCaller(ctx, caller)
			}
			return ctx
		},
		ErrorHandler: func(c router.Context, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				err = NewUnauthorizedError(err)
			}
			return WriteError(c, logger, err)
		},
	})
}

// ToRichError normalizes any error into a *errors.Error with a status code.
// Unknown errors become a generic 500.
func ToRichError(err error) *errors.Error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return errors.Wrap(err, errors.CategoryInternal, msgInternalFailure).
			WithTextCode(textCodeInternal).
			WithCode(errors.CodeInternal)
	}

	if richErr.Code == 0 {
		clone := *richErr
		richErr = clone.WithCode(statusFromCategory(richErr))
	}

	return richErr
}

// StatusFromError returns the HTTP status for err
func StatusFromError(err error) int {
	return ToRichError(err).Code
}

// WriteError renders err as {"detail", "code"} with the mapped status
func WriteError(c router.Context, logger Logger, err error) error {
	richErr := ToRichError(err)

	resp := ErrorResponse{
		Detail: richErr.Message,
		Code:   richErr.TextCode,
	}

	if richErr.Code >= http.StatusInternalServerError {
		normalizeLogger(logger).Error("request failed",
			"error", err,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		if richErr.Category == errors.CategoryInternal && richErr.TextCode == textCodeInternal {
			resp.Detail = msgInternalFailure
		}
	} else {
		normalizeLogger(logger).Debug("request rejected",
			"error", richErr.Message,
			"code", richErr.TextCode,
			"status", richErr.Code,
		)
	}

	if resp.Code == "" {
		resp.Code = textCodeInternal
	}

	return c.JSON(richErr.Code, resp)
}

func statusFromCategory(richErr *errors.Error) int {
	switch richErr.Category {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
