package httpapi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxJSONBytes = 1 << 20

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	var body signupRequest
	if err := r.decode(w, req, &body); err != nil {
		r.writeError(w, req, err)
		return
	}
	body.UserName = r.validate.Text(body.UserName)
	body.Email = strings.TrimSpace(body.Email)
	if err := r.validate.Struct(body); err != nil {
		r.writeError(w, req, err)
		return
	}

	user, err := r.auth.Signup(req.Context(), services.SignupInput{
		UserName: body.UserName,
		Email:    body.Email,
		Password: body.Password,
	}, r.baseURL(req))
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		User:   newUserResponse(user),
		Detail: "User successfully created. Check your email for confirmation.",
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if isForm(req) {
		if err := req.ParseForm(); err != nil {
			r.writeError(w, req, fmt.Errorf("%w: %v", common.ErrorValidation, err))
			return
		}
		body.Email = req.PostForm.Get("username")
		body.Password = req.PostForm.Get("password")
	} else if err := r.decode(w, req, &body); err != nil {
		r.writeError(w, req, err)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := r.validate.Struct(body); err != nil {
		r.writeError(w, req, err)
		return
	}

	pair, err := r.auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	token, ok := bearerToken(req)
	if !ok {
		r.writeError(w, req, common.ErrInvalidCredentials)
		return
	}

	pair, err := r.auth.Refresh(req.Context(), token)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if err := r.auth.Logout(req.Context(), currentUser(req.Context())); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleConfirmEmail(w http.ResponseWriter, req *http.Request) {
	already, err := r.auth.ConfirmEmail(req.Context(), chi.URLParam(req, "token"))
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	if already {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Your email is already confirmed"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email confirmed"})
}

func (r *Router) handleRequestEmail(w http.ResponseWriter, req *http.Request) {
	var body emailRequest
	if err := r.decode(w, req, &body); err != nil {
		r.writeError(w, req, err)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := r.validate.Struct(body); err != nil {
		r.writeError(w, req, err)
		return
	}

	already, err := r.auth.RequestEmail(req.Context(), body.Email, r.baseURL(req))
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	if already {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Your email is already confirmed"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Check your email for confirmation."})
}

// decode reads a JSON body of at most maxJSONBytes into v.
func (r *Router) decode(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

// baseURL is the public root of the API used in emailed links.
func (r *Router) baseURL(req *http.Request) string {
	if r.opts.BaseURL != "" {
		return r.opts.BaseURL
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if p := req.Header.Get("X-Forwarded-Proto"); p != "" && r.opts.TrustProxyHeaders {
		scheme = p
	}
	return scheme + "://" + req.Host
}

func isForm(req *http.Request) bool {
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}
