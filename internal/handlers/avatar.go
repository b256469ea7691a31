package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "scribemarket/api/internal/middleware"
)

const maxAvatarBytes = 2 << 20 // 2 MiB

// UploadAvatar stores a profile picture for the signed-in user.
func (h *HandlerSet) UploadAvatar(c *gin.Context) {
	identity, ok := mw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar_storage_unavailable"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image type"})
		return
	}

	avatarURL, err := h.avatars.Put(c.Request.Context(), identity.ID, file, header.Size, contentType)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", identity.ID).Msg("avatar upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	// In local mode the account record carries the URL; in remote mode the
	// hosted backend owns profile metadata and the object path is enough.
	if h.accounts != nil {
		if err := h.accounts.UpdateAvatarURL(c.Request.Context(), identity.ID, avatarURL); err != nil {
			h.log.Warn().Err(err).Str("user_id", identity.ID).Msg("avatar url update failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": avatarURL})
}
