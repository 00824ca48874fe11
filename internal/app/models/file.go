package models

import "time"

// HubResource is a file shared inside a hub
type HubResource struct {
	ID         int64     `json:"id" db:"id"`
	HubID      int64     `json:"hubId" db:"hub_id"`
	UploadedBy int64     `json:"uploadedBy" db:"uploaded_by"`
	FileName   string    `json:"fileName" db:"file_name"`
	FilePath   string    `json:"-" db:"file_path"`
	FileURL    string    `json:"fileUrl" db:"file_url"`
	FileSize   int64     `json:"fileSize" db:"file_size"`
	MimeType   string    `json:"mimeType" db:"mime_type"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
