package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sixtrece/beats-server/internal/http/response"
)

// EnvelopeTransformer wraps every operation result in the response envelope.
// Errors arrive as *APIError and become {v, success:false, code, message, details}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.Fail(apiErr.Code, apiErr.Message, apiErr.Details), nil
	}

	if err, ok := v.(error); ok && !response.IsSuccessStatus(status) {
		code, _ := strconv.Atoi(status)
		return response.Fail(statusToCode(code), err.Error(), nil), nil
	}

	return response.Ok(v), nil
}
