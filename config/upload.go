package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

var UploadContexts = map[string]UploadConfig{
	// Фото хранятся прямо в БД, поэтому лимит небольшой.
	"inspection_photo": {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/webp", "image/heic"},
		MaxSizeMB:        10,
		PathPrefix:       "media/photos",
	},
	"inspection_video": {
		AllowedMimeTypes: []string{"video/mp4", "video/quicktime", "video/webm", "video/3gpp"},
		MaxSizeMB:        200,
		PathPrefix:       "media/videos",
	},
	"equipment_import": {
		AllowedMimeTypes: []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		MaxSizeMB:        20,
		PathPrefix:       "imports",
	},
}
