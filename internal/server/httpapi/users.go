package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(currentUser(req.Context())))
}

// handleAvatar stores the multipart "file" part as the user's avatar.
func (r *Router) handleAvatar(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxAvatarBytes+(1<<20))
	if err := req.ParseMultipartForm(r.opts.MaxAvatarBytes); err != nil {
		r.writeError(w, req, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		r.writeError(w, req, fmt.Errorf("%w: file: %v", common.ErrorValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, r.opts.MaxAvatarBytes+1))
	if err != nil {
		r.writeError(w, req, fmt.Errorf("%w: file: %v", common.ErrorValidation, err))
		return
	}
	if int64(len(data)) > r.opts.MaxAvatarBytes || len(data) == 0 {
		r.writeError(w, req, fmt.Errorf("%w: file size", common.ErrorValidation))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		r.writeError(w, req, fmt.Errorf("%w: file is not an image", common.ErrorValidation))
		return
	}

	user, err := r.auth.UpdateAvatar(req.Context(), currentUser(req.Context()), contentType, data)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
