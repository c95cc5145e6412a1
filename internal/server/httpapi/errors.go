package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/validation"
)

type errorResponse struct {
	Detail any `json:"detail"`
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as 500 without details.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var verrs validation.Errors

	status, detail := http.StatusInternalServerError, any("Internal server error")
	switch {
	case errors.As(err, &verrs):
		status, detail = http.StatusUnprocessableEntity, []validation.FieldError(verrs)
	case errors.Is(err, common.ErrorValidation):
		status, detail = http.StatusUnprocessableEntity, "Invalid request"
	case errors.Is(err, common.ErrorNotFound):
		status, detail = http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, detail = http.StatusConflict, "Account already exists"
	case errors.Is(err, common.ErrEmailNotConfirmed):
		status, detail = http.StatusUnauthorized, "Email not confirmed"
	case errors.Is(err, common.ErrInvalidScope):
		status, detail = http.StatusUnauthorized, "Invalid scope for token"
	case errors.Is(err, common.ErrInvalidRefreshToken):
		status, detail = http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrorUnauthorized):
		status, detail = http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, common.ErrInvalidToken):
		status, detail = http.StatusUnprocessableEntity, "Invalid token for email verification"
	case errors.Is(err, common.ErrVerification):
		status, detail = http.StatusBadRequest, "Verification error"
	case errors.Is(err, common.ErrRateLimited):
		status, detail = http.StatusTooManyRequests, "Too Many Requests"
	default:
		r.log.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
