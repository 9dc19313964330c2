package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const mb = 1 << 20

// fileConfig caps upload size and binds MIME types to a bucket folder.
type fileConfig struct {
	maxSize int64
	types   map[string]bool
	folder  string
}

var fileConfigs = []fileConfig{
	{
		maxSize: 16 * mb,
		folder:  "images",
		types: map[string]bool{
			"image/jpeg": true, "image/jpg": true, "image/png": true,
			"image/gif": true, "image/webp": true,
		},
	},
	{
		maxSize: 16 * mb,
		folder:  "videos",
		types: map[string]bool{
			"video/mp4": true, "video/webm": true, "video/mov": true, "video/avi": true,
		},
	},
	{
		maxSize: 50 * mb,
		folder:  "documents",
		types: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
			"text/plain": true,
		},
	},
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

func lookupFileConfig(mimeType string) *fileConfig {
	for i := range fileConfigs {
		if fileConfigs[i].types[mimeType] {
			return &fileConfigs[i]
		}
	}
	return nil
}

// objectKey builds the per-user bucket path for an upload. The random suffix
// keeps two uploads of the same file in the same millisecond from colliding.
func objectKey(userID int64, folder, originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	base = unsafeNameChars.ReplaceAllString(base, "_")
	return fmt.Sprintf("%d/%s/%s_%d_%s%s",
		userID, folder, base, time.Now().UnixMilli(), random.String(6), ext)
}

func (s *Server) uploadMedia(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FILE", "No file provided", nil)
	}
	contentType := fh.Header.Get("Content-Type")
	cfg := lookupFileConfig(contentType)
	if cfg == nil {
		return webserver.Fail(c, http.StatusBadRequest, "UNSUPPORTED_TYPE",
			"Unsupported file type. Allowed: images, videos, documents", nil)
	}
	if fh.Size > cfg.maxSize {
		return webserver.Fail(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds limit of %dMB", cfg.maxSize/mb), nil)
	}

	src, err := fh.Open()
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_FILE", "Unable to read file", nil)
	}
	defer src.Close()

	key := objectKey(ident.UserID, cfg.folder, fh.Filename)
	url, err := s.media.Put(c.Request().Context(), key, src, fh.Size, contentType)
	if err != nil {
		zap.L().Error("media: bucket upload failed", zap.String("key", key), zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to upload file", nil)
	}

	upload := &domain.MediaUpload{
		ID:         common.UUIDint64(),
		UserId:     ident.UserID,
		FileName:   fh.Filename,
		FileType:   contentType,
		URL:        url,
		ObjectKey:  key,
		UploadedAt: time.Now(),
	}
	if err := s.db.WithContext(c.Request().Context()).Create(upload).Error; err != nil {
		zap.L().Error("media: metadata create failed", zap.String("key", key), zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record upload", nil)
	}

	return webserver.Created(c, map[string]interface{}{
		"id":          upload.ID,
		"file_name":   upload.FileName,
		"file_type":   upload.FileType,
		"url":         upload.URL,
		"category":    cfg.folder,
		"size":        fh.Size,
		"uploaded_at": upload.UploadedAt,
	})
}

func (s *Server) listMedia(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	page, pageSize := webserver.ParsePagination(c)

	db := s.db.WithContext(c.Request().Context()).
		Model(&domain.MediaUpload{}).
		Where("user_id = ?", ident.UserID)
	if ft := c.QueryParam("fileType"); ft != "" {
		db = db.Where("file_type = ?", ft)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query media", nil)
	}
	var rows []domain.MediaUpload
	if err := db.Order("uploaded_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query media", nil)
	}
	return webserver.Paged(c, rows, total, page, pageSize)
}

func (s *Server) deleteMedia(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid media ID", nil)
	}
	db := s.db.WithContext(c.Request().Context())

	var media domain.MediaUpload
	err = db.Where("id = ? AND user_id = ?", id, ident.UserID).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found", nil)
	} else if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query media", nil)
	}

	// Object removal is best-effort; the metadata row goes either way so a
	// dangling bucket object never pins local state.
	if err := s.media.Remove(c.Request().Context(), media.ObjectKey); err != nil {
		zap.L().Warn("media: bucket remove failed",
			zap.String("key", media.ObjectKey), zap.Error(err))
	}

	if err := db.Where("id = ? AND user_id = ?", id, ident.UserID).
		Delete(&domain.MediaUpload{}).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete media", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"deleted": true})
}
