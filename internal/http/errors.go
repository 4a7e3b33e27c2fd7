package http

import (
	"errors"
	"net/http"
	"strconv"

	"orcamento/internal/core"
	"orcamento/internal/log"
)

// retryAfterSeconds is advertised when the store is unreachable.
const retryAfterSeconds = 5

// writeError maps err onto the API error taxonomy. Internal failures are
// logged in full and reported to the client without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.NewStructuredLogger(log.FromContext(ctx))

	var (
		ve *core.ValidationError
		nf *core.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeErrorBody(w, http.StatusBadRequest, log.ErrorTypeValidation, "request validation failed", ve.Fields)

	case errors.As(err, &nf):
		writeErrorBody(w, http.StatusNotFound, log.ErrorTypeNotFound, nf.Error(), nil)

	case errors.Is(err, core.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, log.ErrorTypeNotFound, "not found", nil)

	case errors.Is(err, core.ErrOriginNotAllowed):
		writeErrorBody(w, http.StatusForbidden, log.ErrorTypeConflict, err.Error(), nil)

	case errors.Is(err, core.ErrStoreUnavailable):
		logger.LogError(ctx, "Store unavailable", err, log.ErrorTypeStoreUnavailable, requestFields(r))
		ErrorResponse(http.StatusServiceUnavailable, log.ErrorTypeStoreUnavailable,
			"storage is temporarily unavailable, retry later", nil).
			Header("Retry-After", strconv.Itoa(retryAfterSeconds)).
			Write(w)

	default:
		logger.LogError(ctx, "Request failed", err, log.ErrorTypeInternal, requestFields(r))
		writeErrorBody(w, http.StatusInternalServerError, log.ErrorTypeInternal, "internal server error", nil)
	}
}

func requestFields(r *http.Request) log.LogFields {
	return log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
}
