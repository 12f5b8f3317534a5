package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/storage"
	"offshoreCV/internal/store"
)

const (
	avatarURLTTL          = 15 * time.Minute
	defaultMaxUploadBytes = 5 * 1024 * 1024
)

// AssetHandler 负责头像上传与访问。
type AssetHandler struct {
	store         *store.Store
	invalidator   cacheInvalidator
	Storage       ObjectStorage
	Scanner       storage.Scanner
	Tasks         TaskEnqueuer
	Logger        *slog.Logger
	MaxBytes      int64
	PublicBaseURL string
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(st *store.Store, publicCache *cache.PublicCV, storageClient ObjectStorage, scanner storage.Scanner, enqueuer TaskEnqueuer, logger *slog.Logger, maxBytes int64, publicBaseURL string) *AssetHandler {
	if scanner == nil {
		scanner = storage.NoopScanner{}
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &AssetHandler{
		store:         st,
		invalidator:   cacheInvalidator{store: st, cache: publicCache},
		Storage:       storageClient,
		Scanner:       scanner,
		Tasks:         enqueuer,
		Logger:        logger,
		MaxBytes:      maxBytes,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// uploadedFile 是已通过大小、类型与病毒检查的上传文件。
type uploadedFile struct {
	header      *multipart.FileHeader
	contentType string
	ext         string
}

// acceptUpload 读取表单字段 file，按内容嗅探类型并扫描。失败时已写入响应。
func acceptUpload(c *gin.Context, logger *slog.Logger, scanner storage.Scanner, maxBytes int64, extFor func(string) (string, bool)) (uploadedFile, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return uploadedFile{}, false
	}
	if file.Size <= 0 {
		BadRequest(c, "empty file")
		return uploadedFile{}, false
	}
	if file.Size > maxBytes {
		BadRequest(c, fmt.Sprintf("file exceeds %d bytes", maxBytes))
		return uploadedFile{}, false
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return uploadedFile{}, false
	}
	defer reader.Close()

	// 以文件内容判定类型，不信任客户端声明的 Content-Type。
	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		Internal(c, "failed to read file")
		return uploadedFile{}, false
	}
	contentType := detected.String()
	ext, ok := extFor(contentType)
	if !ok {
		BadRequest(c, "unsupported file type")
		return uploadedFile{}, false
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		Internal(c, "failed to read file")
		return uploadedFile{}, false
	}
	if err := scanner.Scan(reader); err != nil {
		if errors.Is(err, storage.ErrInfected) {
			logger.Warn("upload rejected by virus scan", slog.String("filename", file.Filename))
			BadRequest(c, "malicious file detected")
			return uploadedFile{}, false
		}
		logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return uploadedFile{}, false
	}

	return uploadedFile{header: file, contentType: contentType, ext: ext}, true
}

func (h *AssetHandler) upload(c *gin.Context, objectKey string, f uploadedFile) error {
	reader, err := f.header.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = h.Storage.UploadFile(c.Request.Context(), objectKey, reader, f.header.Size, f.contentType)
	return err
}

// UploadAvatar 上传并替换当前用户的头像。
func (h *AssetHandler) UploadAvatar(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.Logger).With(slog.String("profile_id", profileID))

	f, ok := acceptUpload(c, logger, h.Scanner, h.MaxBytes, storage.AvatarExtension)
	if !ok {
		return
	}

	objectKey := storage.AvatarKey(profileID, f.ext)
	if err := h.upload(c, objectKey, f); err != nil {
		logger.Error("upload avatar", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	avatarURL := fmt.Sprintf("%s/assets/avatars/%s?v=%d", h.PublicBaseURL, profileID, time.Now().Unix())
	previous, err := h.store.SetAvatar(ctx, profileID, objectKey, avatarURL)
	if err != nil {
		respondError(c, logger, err, "set avatar")
		return
	}
	if previous != "" && previous != objectKey {
		enqueueCleanup(c, h.Tasks, logger, profileID, "avatar_replaced", previous)
	}
	h.invalidator.invalidate(ctx, logger, profileID)

	logger.Info("avatar uploaded", slog.String("object_key", objectKey))
	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}

// RedirectAvatar 将公开头像地址重定向到短期预签名 URL。
func (h *AssetHandler) RedirectAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	profileID := c.Param("profileID")

	key, err := h.store.AvatarKey(ctx, profileID)
	if err != nil || key == "" {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			requestLogger(c, h.Logger).Error("load avatar key", slog.Any("error", err))
		}
		NotFound(c, "avatar not found")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(ctx, key, avatarURLTTL)
	if err != nil {
		requestLogger(c, h.Logger).Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int((avatarURLTTL/2).Seconds())))
	c.Redirect(http.StatusFound, signedURL)
}
