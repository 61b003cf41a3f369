package service

import (
	"fmt"
	"time"

	"github.com/lk2023060901/iqac-backend/internal/record/models"
)

// RecordItem is the listing shape the portal frontend renders.
type RecordItem struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	EventDate    string    `json:"event_date"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Link         string    `json:"link"`
	DownloadLink string    `json:"download_link"`
}

func toRecordItem(rec *models.Record) RecordItem {
	base := fmt.Sprintf("/api/%s", rec.Kind.Route())
	return RecordItem{
		ID:           rec.ID,
		Title:        rec.Title,
		EventDate:    rec.EventDate,
		UploadedAt:   rec.UploadedAt,
		Link:         fmt.Sprintf("%s/file/%d", base, rec.ID),
		DownloadLink: fmt.Sprintf("%s/download/%d", base, rec.ID),
	}
}

func toRecordItems(recs []*models.Record) []RecordItem {
	items := make([]RecordItem, len(recs))
	for i, rec := range recs {
		items[i] = toRecordItem(rec)
	}
	return items
}

// FileInfo echoes the accepted metadata back to the uploader.
type FileInfo struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	EventDate string `json:"eventDate"`
	Filename  string `json:"filename"`
	Status    int8   `json:"status"`
}

// DecideRequest is the approve/reject request body.
type DecideRequest struct {
	Action string `json:"action"`
}
