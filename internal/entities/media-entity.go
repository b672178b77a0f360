package entities

import "time"

// Media - фото или видео контрольной точки. Фото хранится в Data,
// видео лежит в объектном хранилище по ObjectKey.
type Media struct {
	ID           uint64    `json:"id" db:"id"`
	CheckpointID uint64    `json:"checkpointId" db:"checkpoint_id"`
	MediaType    string    `json:"mediaType" db:"media_type"`
	Storage      string    `json:"storage" db:"storage"`
	Data         []byte    `json:"-" db:"data"`
	ObjectKey    *string   `json:"objectKey,omitempty" db:"object_key"`
	Filename     string    `json:"filename" db:"filename"`
	MimeType     string    `json:"mimeType" db:"mime_type"`
	Size         int64     `json:"size" db:"size"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	// URL заполняется сервисом для ответа клиенту и отчёта.
	URL string `json:"url,omitempty" db:"-"`
}
