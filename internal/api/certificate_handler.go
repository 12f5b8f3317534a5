package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/profile"
	"offshoreCV/internal/storage"
)

const documentLinkTTL = time.Hour

type certificateRequest struct {
	CertID      string `json:"cert_id"`
	IssuedBy    string `json:"issued_by" binding:"max=255"`
	IssueDate   string `json:"issue_date"`
	ExpiryDate  string `json:"expiry_date"`
	HasNoExpiry bool   `json:"has_no_expiry"`
}

func (r certificateRequest) toAssignment(id string) (profile.CertificateAssignment, error) {
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return profile.CertificateAssignment{}, err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return profile.CertificateAssignment{}, err
	}
	return profile.CertificateAssignment{
		ID:           id,
		LookupCertID: r.CertID,
		IssuedBy:     r.IssuedBy,
		IssueDate:    issue,
		ExpiryDate:   expiry,
		HasNoExpiry:  r.HasNoExpiry,
	}, nil
}

// ListCertificates 返回当前用户的证书。
func (h *AssetHandler) ListCertificates(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	items, err := h.store.ListCertificates(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.Logger), err, "list certificates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AssetHandler) CreateCertificate(c *gin.Context) {
	h.saveCertificate(c, "", http.StatusCreated)
}

func (h *AssetHandler) UpdateCertificate(c *gin.Context) {
	h.saveCertificate(c, c.Param("id"), http.StatusOK)
}

func (h *AssetHandler) saveCertificate(c *gin.Context, id string, status int) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req certificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.Logger).With(slog.String("profile_id", profileID))

	cert, err := req.toAssignment(id)
	if err == nil {
		cert, err = h.store.SaveCertificate(ctx, profileID, cert)
	}
	if err != nil {
		respondError(c, logger, err, "save certificate")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.JSON(status, cert)
}

// DeleteCertificate 删除证书，并异步删除其文档。
func (h *AssetHandler) DeleteCertificate(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.Logger).With(slog.String("profile_id", profileID))

	key, err := h.store.DeleteCertificate(ctx, profileID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "delete certificate")
		return
	}
	if key != "" {
		enqueueCleanup(c, h.Tasks, logger, profileID, "certificate_deleted", key)
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.Status(http.StatusNoContent)
}

// UploadCertificateDocument 上传证书扫描件（PDF 或图片），替换旧文档。
func (h *AssetHandler) UploadCertificateDocument(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	certID := c.Param("id")
	logger := requestLogger(c, h.Logger).With(slog.String("profile_id", profileID), slog.String("cert_id", certID))

	if _, err := h.store.GetCertificate(ctx, profileID, certID); err != nil {
		respondError(c, logger, err, "get certificate")
		return
	}

	f, ok := acceptUpload(c, logger, h.Scanner, h.MaxBytes, storage.DocumentExtension)
	if !ok {
		return
	}

	objectKey := storage.CertificateKey(profileID, f.header.Filename, f.ext, time.Now())
	if err := h.upload(c, objectKey, f); err != nil {
		logger.Error("upload certificate document", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	previous, err := h.store.SetCertificateDocument(ctx, profileID, certID, objectKey)
	if err != nil {
		enqueueCleanup(c, h.Tasks, logger, profileID, "certificate_document_orphaned", objectKey)
		respondError(c, logger, err, "set certificate document")
		return
	}
	if previous != "" && previous != objectKey {
		enqueueCleanup(c, h.Tasks, logger, profileID, "certificate_document_replaced", previous)
	}
	h.invalidator.invalidate(ctx, logger, profileID)

	cert, err := h.store.GetCertificate(ctx, profileID, certID)
	if err != nil {
		respondError(c, logger, err, "get certificate")
		return
	}
	c.JSON(http.StatusOK, cert)
}

// GetCertificateDocumentLink 返回证书文档的一小时预签名链接。
func (h *AssetHandler) GetCertificateDocumentLink(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.Logger)

	cert, err := h.store.GetCertificate(ctx, profileID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "get certificate")
		return
	}
	if cert.CertificateURL == "" {
		NotFound(c, "certificate has no document")
		return
	}

	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("inline; filename=%q", path.Base(cert.CertificateURL)),
	}
	signedURL, err := h.Storage.GeneratePresignedURLWithParams(ctx, cert.CertificateURL, documentLinkTTL, params)
	if err != nil {
		logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":        signedURL,
		"expires_in": int(documentLinkTTL.Seconds()),
	})
}
