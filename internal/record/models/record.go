package models

import (
	"time"

	"github.com/lk2023060901/iqac-backend/internal/pkg/blob"
)

// Kind discriminates the three approvable-attachment flavours the portal
// publishes. They share one table and one lifecycle; only routing and
// labels differ.
type Kind string

const (
	KindNotice Kind = "notice"
	KindSurvey Kind = "survey"
	KindMOM    Kind = "mom"
)

// ParseKind resolves a URL path segment to a Kind. Plural forms are
// accepted because the legacy frontend links both.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "notice", "notices":
		return KindNotice, true
	case "survey", "surveys":
		return KindSurvey, true
	case "mom", "minutes":
		return KindMOM, true
	}
	return "", false
}

// Route is the URL path segment the kind's endpoints are mounted under.
func (k Kind) Route() string {
	switch k {
	case KindNotice:
		return "notices"
	case KindSurvey:
		return "surveys"
	case KindMOM:
		return "mom"
	}
	return string(k)
}

// Kinds lists every kind served by the portal.
func Kinds() []Kind {
	return []Kind{KindNotice, KindSurvey, KindMOM}
}

// Label is the human-readable name used in response messages.
func (k Kind) Label() string {
	switch k {
	case KindNotice:
		return "Notice"
	case KindSurvey:
		return "Survey"
	case KindMOM:
		return "Minutes of meeting"
	}
	return "Record"
}

// Record is one uploaded attachment moving through the approval workflow.
// Exactly one of FilePath / ObjectKey / FileData is populated, matching
// the deployment's blob backend.
type Record struct {
	ID           uint   `gorm:"primaryKey"`
	Kind         Kind   `gorm:"type:varchar(20);not null;index:idx_records_kind_status"`
	Title        string `gorm:"type:varchar(255);not null"`
	EventDate    string `gorm:"type:varchar(20);not null"` // date or year string, display-only
	FileName     string `gorm:"type:varchar(255);not null"`
	FileMimeType string `gorm:"type:varchar(100);not null"`

	FilePath  string `gorm:"type:varchar(255)"`
	ObjectKey string `gorm:"type:varchar(500)"`
	FileData  []byte `gorm:"type:bytea"`

	Status     Status    `gorm:"type:smallint;not null;default:2;index:idx_records_kind_status"`
	UploadedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (Record) TableName() string {
	return "records"
}

// Validate checks the invariants every persisted record holds.
func (r *Record) Validate() error {
	if _, ok := ParseKind(string(r.Kind)); !ok {
		return ErrInvalidKind
	}
	if r.Title == "" {
		return ErrEmptyTitle
	}
	if r.EventDate == "" {
		return ErrEmptyEventDate
	}
	if r.FileName == "" {
		return ErrEmptyFileName
	}
	if r.FileMimeType == "" {
		return ErrEmptyMimeType
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.FilePath == "" && r.ObjectKey == "" && r.FileData == nil {
		return ErrNoPayloadRef
	}
	return nil
}

// PayloadRef rebuilds the blob ref this record was stored with.
func (r *Record) PayloadRef() blob.Ref {
	return blob.Ref{
		Path:      r.FilePath,
		ObjectKey: r.ObjectKey,
		Inline:    r.FileData,
	}
}

// SetPayloadRef records where the payload bytes live.
func (r *Record) SetPayloadRef(ref blob.Ref) {
	r.FilePath = ref.Path
	r.ObjectKey = ref.ObjectKey
	r.FileData = ref.Inline
}
