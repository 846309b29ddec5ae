package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/store"
)

// APIError is the huma.StatusError every failed operation produces.
// EnvelopeTransformer turns it into the error envelope.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler installs the domain error mapping into huma.
// Call it before serving requests. With exposeDetails set, internal errors
// carry their cause in details; production hides it.
func RegisterErrorHandler(exposeDetails bool) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr, exposeDetails)
			}

			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: err.Error(),
				}
			}
		}

		// Request binding failures (bad integers, malformed bodies) are
		// client errors, reported as 400 naming the offending field.
		if status == http.StatusUnprocessableEntity {
			return bindingError(errs)
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if status >= http.StatusInternalServerError && exposeDetails && len(errs) > 0 {
			apiErr.Details = errorStrings(errs)
		}
		return apiErr
	}
}

func fromDomainError(err *domainerrors.Error, exposeDetails bool) *APIError {
	apiErr := &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
	if err.Code == domainerrors.CodeInternal {
		apiErr.Details = nil
		if exposeDetails && err.Cause() != nil {
			apiErr.Details = err.Cause().Error()
		}
	}
	return apiErr
}

// bindingError converts huma's parameter errors to a validation error.
// Locations such as "query.limit" are reduced to the field name.
func bindingError(errs []error) *APIError {
	fields := make(map[string]string)
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			continue
		}
		fields[fieldName(detail.Location)] = detail.Message
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, "invalid "+name+": "+fields[name])
	}

	apiErr := &APIError{
		status:  http.StatusBadRequest,
		Code:    string(domainerrors.CodeValidation),
		Message: "invalid request",
	}
	if len(parts) > 0 {
		apiErr.Message = strings.Join(parts, "; ")
		apiErr.Details = fields
	}
	return apiErr
}

func fieldName(location string) string {
	if i := strings.LastIndexByte(location, '.'); i >= 0 {
		return location[i+1:]
	}
	if location == "" {
		return "body"
	}
	return location
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeTooManyRequests)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
