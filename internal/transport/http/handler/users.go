package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/pkg/validate"
	"github.com/thelyst/internal/transport/http/middleware"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 5 << 20

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	svc identity.Service
}

func NewUserHandler(svc identity.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.Profile(r.Context(), info.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, User: u})
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), info.UserID, req.Name)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, User: u})
}

// UploadAvatar reads the multipart "file" field. The content type is sniffed
// from the bytes, not taken from the client.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1024)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		writeError(w, http.StatusBadRequest, "file is empty or unreadable")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	u, err := h.svc.SetAvatar(r.Context(), info.UserID, io.MultiReader(bytes.NewReader(head), file), contentType)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, User: u})
}
