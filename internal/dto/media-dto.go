package dto

import "time"

type MediaDTO struct {
	ID           uint64    `json:"id"`
	CheckpointID uint64    `json:"checkpointId"`
	MediaType    string    `json:"mediaType"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}
