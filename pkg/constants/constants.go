// pkg/constants/constants.go
package constants

//============== UPLOAD CONTEXTS ==============

// UploadContext определяет тип для контекстов загрузки файлов.
type UploadContext string

const (
	UploadContextInspectionPhoto UploadContext = "inspection_photo"
	UploadContextInspectionVideo UploadContext = "inspection_video"
	UploadContextEquipmentImport UploadContext = "equipment_import"
)

// String возвращает строковое представление контекста.
func (uc UploadContext) String() string {
	return string(uc)
}

//============== CACHE KEYS ==============

const (
	// Формат: login_attempts:<userID> -> count
	CacheKeyLoginAttempts = "login_attempts:%d"

	// Ключ, указывающий, что аккаунт заблокирован из-за неудачных попыток входа.
	// Формат: lockout:<userID> -> "locked"
	CacheKeyLockout = "lockout:%d"
)

//============== MEDIA ==============

const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"

	MediaStorageInline = "inline"
	MediaStorageObject = "object"

	// Корень ключей видео в объектном хранилище.
	MediaObjectPrefix = "media/"
)

//============== ROLES ==============

const (
	RoleTechnician = "TECHNICIAN"
	RoleSupervisor = "SUPERVISOR"
	RoleAdmin      = "ADMIN"
)

var Roles = []string{RoleTechnician, RoleSupervisor, RoleAdmin}
