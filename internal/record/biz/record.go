package biz

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lk2023060901/iqac-backend/internal/pkg/blob"
	apperrors "github.com/lk2023060901/iqac-backend/internal/pkg/errors"
	"github.com/lk2023060901/iqac-backend/internal/record/models"
	"go.uber.org/zap"
)

// ErrRecordNotFound is the data-layer miss sentinel. The use case folds
// access denials into the same not-found surface so existence never leaks.
var ErrRecordNotFound = errors.New("record not found")

// RecordRepo is the metadata store contract, implemented by data.RecordRepo.
type RecordRepo interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, kind models.Kind, id uint) (*models.Record, error)
	ListByStatus(ctx context.Context, kind models.Kind, status models.Status) ([]*models.Record, error)
	UpdateStatus(ctx context.Context, kind models.Kind, id uint, status models.Status) (int64, error)
}

// DecisionNotifier is told about approve/reject outcomes. Implementations
// must not block; failures are theirs to log.
type DecisionNotifier interface {
	DecisionMade(rec *models.Record, approved bool)
}

// IngestInput carries one validated-at-the-transport upload into the core.
type IngestInput struct {
	Kind            models.Kind
	Title           string
	EventDate       string
	FileName        string
	MimeType        string
	Data            []byte
	UploaderIsAdmin bool
}

// Payload is a resolved file ready to serve.
type Payload struct {
	Reader       io.ReadCloser
	Size         int64
	MimeType     string
	FileName     string // original upload name, for inline disposition
	DownloadName string // sanitized title-derived name, for attachment disposition
	Streamed     bool   // true when bytes come from disk or object storage
}

// RecordUseCase implements the ingestion, approval and retrieval workflow
// over one blob backend and the record store.
type RecordUseCase struct {
	repo        RecordRepo
	store       blob.Store
	notifier    DecisionNotifier
	allowedMime map[string]bool
	autoApprove map[models.Kind]bool
	logger      *zap.Logger
}

func NewRecordUseCase(
	repo RecordRepo,
	store blob.Store,
	notifier DecisionNotifier,
	allowedMimeTypes []string,
	autoApproveKinds []string,
	logger *zap.Logger,
) *RecordUseCase {
	allowed := make(map[string]bool, len(allowedMimeTypes))
	for _, m := range allowedMimeTypes {
		allowed[strings.ToLower(m)] = true
	}
	auto := make(map[models.Kind]bool, len(autoApproveKinds))
	for _, k := range autoApproveKinds {
		if kind, ok := models.ParseKind(k); ok {
			auto[kind] = true
		}
	}
	return &RecordUseCase{
		repo:        repo,
		store:       store,
		notifier:    notifier,
		allowedMime: allowed,
		autoApprove: auto,
		logger:      logger,
	}
}

// Ingest validates an upload, persists the payload and then the record.
// Validation is fail-fast in the documented order: file presence, required
// fields, MIME allow-list. The size ceiling is enforced at the transport
// boundary before bytes reach this method. A blob written before a failed
// record insert is left orphaned; there is no compensating delete.
func (uc *RecordUseCase) Ingest(ctx context.Context, in IngestInput) (*models.Record, error) {
	if len(in.Data) == 0 || in.FileName == "" {
		return nil, apperrors.New(apperrors.ErrRecordFileMissing)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.EventDate) == "" {
		return nil, apperrors.New(apperrors.ErrRecordInvalidInput)
	}
	if !uc.allowedMime[strings.ToLower(in.MimeType)] {
		return nil, apperrors.New(apperrors.ErrRecordInvalidType, in.MimeType)
	}

	ref, err := uc.store.Put(ctx, in.Data, in.FileName, in.MimeType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	status := models.StatusPending
	if in.UploaderIsAdmin && uc.autoApprove[in.Kind] {
		status = models.StatusApproved
	}

	rec := &models.Record{
		Kind:         in.Kind,
		Title:        in.Title,
		EventDate:    in.EventDate,
		FileName:     in.FileName,
		FileMimeType: in.MimeType,
		Status:       status,
		UploadedAt:   time.Now(),
	}
	rec.SetPayloadRef(ref)

	if err := rec.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRecordInvalidInput)
	}

	if err := uc.repo.Create(ctx, rec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	uc.logger.Info("record ingested",
		zap.Uint("id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.String("title", rec.Title),
		zap.String("status", rec.Status.String()),
		zap.Int("size", len(in.Data)))

	return rec, nil
}

// ListApproved returns the public listing, newest first.
func (uc *RecordUseCase) ListApproved(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	recs, err := uc.repo.ListByStatus(ctx, kind, models.StatusApproved)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	return recs, nil
}

// ListPending returns records awaiting a decision, newest first.
func (uc *RecordUseCase) ListPending(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	recs, err := uc.repo.ListByStatus(ctx, kind, models.StatusPending)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	return recs, nil
}

// Decide applies an approve or reject action. A repeat decision on an
// already-decided record overwrites it; decisions on deleted records are
// refused as not found.
func (uc *RecordUseCase) Decide(ctx context.Context, kind models.Kind, id uint, action string) (models.Status, error) {
	var target models.Status
	switch action {
	case "approve":
		target = models.StatusApproved
	case "reject":
		target = models.StatusRejected
	default:
		return 0, apperrors.New(apperrors.ErrRecordInvalidAction)
	}

	rec, err := uc.repo.GetByID(ctx, kind, id)
	if err != nil {
		return 0, uc.wrapLookup(err)
	}
	if !rec.Status.Decidable() {
		return 0, apperrors.New(apperrors.ErrRecordNotFound)
	}

	affected, err := uc.repo.UpdateStatus(ctx, kind, id, target)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	if affected == 0 {
		return 0, apperrors.New(apperrors.ErrRecordNotFound)
	}

	uc.logger.Info("record decided",
		zap.Uint("id", id),
		zap.String("kind", string(kind)),
		zap.String("action", action))

	if uc.notifier != nil {
		rec.Status = target
		uc.notifier.DecisionMade(rec, target == models.StatusApproved)
	}

	return target, nil
}

// SoftDelete moves an approved or pending record to the terminal Deleted
// state. Deleted records are invisible to every subsequent query.
func (uc *RecordUseCase) SoftDelete(ctx context.Context, kind models.Kind, id uint) error {
	rec, err := uc.repo.GetByID(ctx, kind, id)
	if err != nil {
		return uc.wrapLookup(err)
	}
	if !rec.Status.Deletable() {
		return apperrors.New(apperrors.ErrRecordNotFound)
	}

	affected, err := uc.repo.UpdateStatus(ctx, kind, id, models.StatusDeleted)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	if affected == 0 {
		return apperrors.New(apperrors.ErrRecordNotFound)
	}

	uc.logger.Info("record soft-deleted", zap.Uint("id", id), zap.String("kind", string(kind)))
	return nil
}

// Resolve checks access and opens the payload. Denied access is reported
// exactly like a missing record. A record whose payload cannot be located
// is a data-integrity fault: logged, surfaced as a distinct 404.
func (uc *RecordUseCase) Resolve(ctx context.Context, kind models.Kind, id uint, privileged bool) (*Payload, error) {
	rec, err := uc.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, uc.wrapLookup(err)
	}
	if !rec.Status.VisibleTo(privileged) {
		return nil, apperrors.New(apperrors.ErrRecordNotFound)
	}

	reader, size, err := uc.store.Open(ctx, rec.PayloadRef())
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			uc.logger.Error("payload missing for live record",
				zap.Uint("id", rec.ID),
				zap.String("kind", string(rec.Kind)),
				zap.String("status", rec.Status.String()))
			return nil, apperrors.New(apperrors.ErrPayloadNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	return &Payload{
		Reader:       reader,
		Size:         size,
		MimeType:     rec.FileMimeType,
		FileName:     rec.FileName,
		DownloadName: DownloadFilename(rec.Title, rec.FilePath, rec.FileName),
		Streamed:     rec.FileData == nil,
	}, nil
}

func (uc *RecordUseCase) wrapLookup(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return apperrors.New(apperrors.ErrRecordNotFound)
	}
	return apperrors.Wrap(err, apperrors.ErrStorageFailed)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DownloadFilename derives the attachment filename: the title lower-cased
// with non-alphanumerics replaced, keeping the stored file's extension.
func DownloadFilename(title, storedPath, originalName string) string {
	ext := filepath.Ext(storedPath)
	if ext == "" {
		ext = filepath.Ext(originalName)
	}
	safe := strings.ToLower(unsafeChars.ReplaceAllString(title, "_"))
	return safe + ext
}
