package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code ferrors.Code) int {
	switch code {
	case ferrors.ErrCodeInvalidDocument,
		ferrors.ErrCodeEmptyScriptName,
		ferrors.ErrCodeInvalidInput,
		ferrors.ErrCodeInvalidKind,
		ferrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ferrors.ErrCodeNotFound,
		ferrors.ErrCodeSessionNotFound,
		ferrors.ErrCodeScriptNotFound,
		ferrors.ErrCodeUnknownNode,
		ferrors.ErrCodeUnknownEdge:
		return http.StatusNotFound
	case ferrors.ErrCodeMissingStartNode:
		return http.StatusUnprocessableEntity
	case ferrors.ErrCodeStoreFailed, ferrors.ErrCodeRunFailed:
		return http.StatusBadGateway
	case ferrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ferrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// respondError writes err as an ErrorResponse. Uncoded errors are logged and
// reported as a generic internal error.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := ferrors.GetCode(err)
	status := statusFor(code)

	msg := ferrors.UserMessage(err)
	if code == "" {
		s.logger.Error("request failed", "error", err)
		code = ferrors.ErrCodeInternal
		msg = "internal error"
	} else if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "code", code, "error", err)
	}

	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    string(code),
		Message: msg,
	})
}

func (s *Server) respondText(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// =============================================================================
// Request decoding
// =============================================================================

var validate = validator.New()

// maxBodyBytes bounds request bodies, including imported documents.
const maxBodyBytes = 4 << 20

// decodeJSON reads the body into v and validates its struct tags. An empty
// body leaves v at its zero value when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	switch {
	case errors.Is(err, io.EOF) && allowEmpty:
	case err != nil:
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return ferrors.New(ferrors.ErrCodeInvalidInput, "%s: failed %q validation", e.Field(), e.Tag())
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request")
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}
