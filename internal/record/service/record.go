package service

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/iqac-backend/internal/auth/middleware"
	"github.com/lk2023060901/iqac-backend/internal/conf"
	apperrors "github.com/lk2023060901/iqac-backend/internal/pkg/errors"
	"github.com/lk2023060901/iqac-backend/internal/pkg/response"
	"github.com/lk2023060901/iqac-backend/internal/record/biz"
	"github.com/lk2023060901/iqac-backend/internal/record/models"
	"go.uber.org/zap"
)

// RecordService exposes the upload/approval/retrieval workflow over HTTP
// for every record kind.
type RecordService struct {
	uc          *biz.RecordUseCase
	upload      conf.UploadConfig
	allowedMime map[string]bool
	logger      *zap.Logger
}

func NewRecordService(uc *biz.RecordUseCase, upload conf.UploadConfig, logger *zap.Logger) *RecordService {
	allowed := make(map[string]bool, len(upload.AllowedMimeTypes))
	for _, m := range upload.AllowedMimeTypes {
		allowed[strings.ToLower(m)] = true
	}
	return &RecordService{
		uc:          uc,
		upload:      upload,
		allowedMime: allowed,
		logger:      logger,
	}
}

// RegisterRoutes mounts one route group per kind. Notice uploads are open
// to anonymous visitors (moderation happens afterwards); survey and MoM
// uploads are direct admin publications.
func (s *RecordService) RegisterRoutes(api *gin.RouterGroup, requireAdmin gin.HandlerFunc, uploadLimiter gin.HandlerFunc) {
	for _, kind := range models.Kinds() {
		kind := kind
		g := api.Group("/" + kind.Route())

		uploadHandlers := []gin.HandlerFunc{}
		if uploadLimiter != nil {
			uploadHandlers = append(uploadHandlers, uploadLimiter)
		}
		if kind != models.KindNotice {
			uploadHandlers = append(uploadHandlers, requireAdmin)
		}
		uploadHandlers = append(uploadHandlers, s.Upload(kind))
		g.POST("/upload", uploadHandlers...)

		g.GET("", s.List(kind))
		g.GET("/pending", requireAdmin, s.ListPending(kind))
		g.DELETE("/:id", requireAdmin, s.Delete(kind))
		g.PUT("/approve/:id", requireAdmin, s.Decide(kind))
		g.GET("/file/:id", s.ServeFile(kind))
		g.GET("/download/:id", s.DownloadFile(kind))
	}
}

// Upload handles a multipart upload: field "file" plus title and date
// metadata. The size ceiling is enforced before the form is parsed and
// the MIME allow-list before the payload is read into memory.
func (s *RecordService) Upload(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.upload.MaxSizeBytes+4096)

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			if isBodyTooLarge(err) {
				response.BadRequest(c, apperrors.GetMessage(apperrors.ErrRecordFileTooLarge))
				return
			}
			response.BadRequest(c, apperrors.GetMessage(apperrors.ErrRecordFileMissing))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if !s.allowedMime[strings.ToLower(mimeType)] {
			response.BadRequest(c, apperrors.GetMessage(apperrors.ErrRecordInvalidType))
			return
		}
		if header.Size > s.upload.MaxSizeBytes {
			response.BadRequest(c, apperrors.GetMessage(apperrors.ErrRecordFileTooLarge))
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			s.logger.Error("failed to read upload", zap.Error(err))
			response.InternalError(c, "Server error while processing upload")
			return
		}

		rec, err := s.uc.Ingest(c.Request.Context(), biz.IngestInput{
			Kind:            kind,
			Title:           c.PostForm("title"),
			EventDate:       firstForm(c, "event_date", "eventDate", "year"),
			FileName:        header.Filename,
			MimeType:        mimeType,
			Data:            data,
			UploaderIsAdmin: middleware.IsAdmin(c),
		})
		if err != nil {
			s.handleError(c, kind, err)
			return
		}

		message := fmt.Sprintf("%s uploaded successfully", kind.Label())
		if rec.Status == models.StatusPending {
			message = fmt.Sprintf("%s submitted for admin approval.", kind.Label())
		}

		response.Created(c, gin.H{
			"message": message,
			"fileInfo": FileInfo{
				ID:        rec.ID,
				Title:     rec.Title,
				EventDate: rec.EventDate,
				Filename:  rec.FileName,
				Status:    int8(rec.Status),
			},
		})
	}
}

// List returns approved records, newest first.
func (s *RecordService) List(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.uc.ListApproved(c.Request.Context(), kind)
		if err != nil {
			s.handleError(c, kind, err)
			return
		}
		response.List(c, toRecordItems(recs))
	}
}

// ListPending returns records awaiting a decision, newest first.
func (s *RecordService) ListPending(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.uc.ListPending(c.Request.Context(), kind)
		if err != nil {
			s.handleError(c, kind, err)
			return
		}
		response.List(c, toRecordItems(recs))
	}
}

// Decide approves or rejects a pending record.
func (s *RecordService) Decide(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.recordID(c)
		if !ok {
			return
		}

		var req DecideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, apperrors.GetMessage(apperrors.ErrRecordInvalidAction))
			return
		}

		status, err := s.uc.Decide(c.Request.Context(), kind, id, req.Action)
		if err != nil {
			s.handleError(c, kind, err)
			return
		}

		verb := "approved"
		if status == models.StatusRejected {
			verb = "rejected"
		}
		response.Success(c, gin.H{
			"message": fmt.Sprintf("%s %s successfully", kind.Label(), verb),
			"status":  int8(status),
		})
	}
}

// Delete soft-deletes a record; the row stays, invisible to every query.
func (s *RecordService) Delete(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.recordID(c)
		if !ok {
			return
		}

		if err := s.uc.SoftDelete(c.Request.Context(), kind, id); err != nil {
			s.handleError(c, kind, err)
			return
		}

		response.Success(c, gin.H{
			"message": fmt.Sprintf("%s deleted successfully", kind.Label()),
		})
	}
}

// ServeFile streams the payload for inline viewing.
func (s *RecordService) ServeFile(kind models.Kind) gin.HandlerFunc {
	return s.sendFile(kind, "inline", func(p *biz.Payload) string { return p.FileName })
}

// DownloadFile streams the payload as an attachment under a sanitized
// title-derived filename.
func (s *RecordService) DownloadFile(kind models.Kind) gin.HandlerFunc {
	return s.sendFile(kind, "attachment", func(p *biz.Payload) string { return p.DownloadName })
}

func (s *RecordService) sendFile(kind models.Kind, disposition string, name func(*biz.Payload) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.recordID(c)
		if !ok {
			return
		}

		payload, err := s.uc.Resolve(c.Request.Context(), kind, id, middleware.IsAdmin(c))
		if err != nil {
			s.handleError(c, kind, err)
			return
		}
		defer payload.Reader.Close()

		c.Header("Content-Type", payload.MimeType)
		c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name(payload)))
		c.Header("Content-Length", strconv.FormatInt(payload.Size, 10))
		c.Status(http.StatusOK)

		// Headers are committed; a copy failure here can only be logged.
		if _, err := io.Copy(c.Writer, payload.Reader); err != nil {
			s.logger.Error("error streaming file",
				zap.Uint("id", id),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}
}

func (s *RecordService) recordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.NotFound(c, "Record not found")
		return 0, false
	}
	return uint(id), true
}

// handleError keeps the legacy kind-specific message texts for the two
// common misses and defers everything else to the shared mapping.
func (s *RecordService) handleError(c *gin.Context, kind models.Kind, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrRecordNotFound):
		response.NotFound(c, fmt.Sprintf("%s not found", kind.Label()))
	case apperrors.Is(err, apperrors.ErrPayloadNotFound):
		response.NotFound(c, "File not found on server")
	default:
		if code := apperrors.ExtractCode(err); code == apperrors.ErrStorageFailed || code == apperrors.ErrInternalServer {
			s.logger.Error("record operation failed",
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
		response.HandleError(c, err)
	}
}

func firstForm(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.PostForm(key); v != "" {
			return v
		}
	}
	return ""
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
