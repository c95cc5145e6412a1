package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func (r *Router) handleListContacts(w http.ResponseWriter, req *http.Request) {
	skip, err := queryInt(req, "skip", 0)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	limit, err := queryInt(req, "limit", defaultListLimit)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	limit = min(limit, maxListLimit)

	list, err := r.contacts.List(req.Context(), currentUser(req.Context()).ID, skip, limit)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactList(list))
}

func (r *Router) handleGetContact(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	c, err := r.contacts.Get(req.Context(), currentUser(req.Context()).ID, id)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactResponse(c))
}

func (r *Router) handleCreateContact(w http.ResponseWriter, req *http.Request) {
	body, err := r.contactBody(w, req)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	c, err := r.contacts.Create(req.Context(), currentUser(req.Context()).ID, body.draft())
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, newContactResponse(c))
}

func (r *Router) handleUpdateContact(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	body, err := r.contactBody(w, req)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	c, err := r.contacts.Update(req.Context(), currentUser(req.Context()).ID, id, body.draft())
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactResponse(c))
}

func (r *Router) handleDeleteContact(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		r.writeError(w, req, err)
		return
	}

	c, err := r.contacts.Delete(req.Context(), currentUser(req.Context()).ID, id)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactResponse(c))
}

func (r *Router) handleBirthdays(w http.ResponseWriter, req *http.Request) {
	list, err := r.contacts.UpcomingBirthdays(req.Context(), currentUser(req.Context()).ID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactList(list))
}

func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) {
	// stored names went through the same sanitizer
	term := r.validate.Text(req.URL.Query().Get("search_word"))
	if term == "" {
		r.writeError(w, req, fmt.Errorf("%w: search_word is required", common.ErrorValidation))
		return
	}

	c, err := r.contacts.Search(req.Context(), currentUser(req.Context()).ID, term)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newContactResponse(c))
}

func (r *Router) contactBody(w http.ResponseWriter, req *http.Request) (*contactRequest, error) {
	var body contactRequest
	if err := r.decode(w, req, &body); err != nil {
		return nil, err
	}
	body.FirstName = r.validate.Text(body.FirstName)
	body.LastName = r.validate.Text(body.LastName)
	body.Email = strings.TrimSpace(body.Email)
	if err := r.validate.Struct(body); err != nil {
		return nil, err
	}
	return &body, nil
}

func pathID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid contact id", common.ErrorValidation)
	}
	return id, nil
}

func queryInt(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", common.ErrorValidation, name)
	}
	return v, nil
}
