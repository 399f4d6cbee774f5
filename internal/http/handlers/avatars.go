package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"stylens-server/internal/sqlinline"
	"stylens-server/internal/storage"
)

const maxAvatarUploadBytes = 32 << 20

// avatarSlots maps multipart field names to their fixed storage slots. Keys
// are deterministic so re-uploads overwrite instead of accumulating.
var avatarSlots = []string{storage.AvatarMain, storage.AvatarSide1, storage.AvatarSide2}

// UploadAvatars replaces the caller's reference photo set. The previous
// folder contents are deleted first so removed angles do not linger and leak
// into later generations.
func (a *App) UploadAvatars(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	email := a.currentUserEmail(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	uploads := make(map[string][]byte, len(avatarSlots))
	types := make(map[string]string, len(avatarSlots))
	for _, slot := range avatarSlots {
		file, header, err := r.FormFile(slot)
		if err != nil {
			continue
		}
		data, readErr := io.ReadAll(file)
		file.Close()
		if readErr != nil {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("failed to read %s", slot))
			return
		}
		uploads[slot] = data
		types[slot] = uploadContentType(header, data)
	}
	if _, ok := uploads[storage.AvatarMain]; !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "main reference photo required")
		return
	}

	// Clean slate before writing the new set.
	if _, err := a.Store.DeletePrefix(r.Context(), storage.AvatarPrefix(email)); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("avatar folder purge failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to clear previous photos")
		return
	}

	for _, slot := range avatarSlots {
		data, ok := uploads[slot]
		if !ok {
			continue
		}
		key := storage.AvatarKey(email, slot)
		if err := a.Store.Put(r.Context(), key, data, types[slot]); err != nil {
			a.Logger.Error().Err(err).Str("user_id", userID).Str("key", key).Msg("avatar upload failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to store photo")
			return
		}
	}

	// Cache-busting query param: the key is stable across re-uploads, so the
	// URL alone would let browsers keep showing the old photo.
	avatarURL := fmt.Sprintf("%s?t=%d", a.Store.PublicURL(storage.AvatarKey(email, storage.AvatarMain)), time.Now().UnixMilli())
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpdateProfileAvatar, userID, avatarURL); err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("profile avatar update failed")
	}

	a.json(w, http.StatusOK, map[string]any{"success": true, "avatarUrl": avatarURL})
}

func uploadContentType(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}
