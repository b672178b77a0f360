package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"inspection-system/pkg/utils"

	"github.com/google/uuid"
)

// ErrObjectNotFound возвращается, если объекта с таким ключом нет.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")

// FileStorageInterface определяет контракт хранилища объектов по ключу.
type FileStorageInterface interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL возвращает ссылку, по которой объект можно скачать без авторизации.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// List возвращает ключи всех объектов с префиксом.
	List(ctx context.Context, prefix string) ([]string, error)
}

// VideoKey строит ключ видео: media/videos/{checkpointId}/{epochMillis}-{rand8}-{sanitizedFilename}.
// Случайный сегмент разводит две загрузки одного файла в одну миллисекунду.
func VideoKey(checkpointID uint64, now time.Time, filename string) string {
	return fmt.Sprintf("media/videos/%d/%d-%s-%s", checkpointID, now.UnixMilli(), uuid.NewString()[:8], utils.SanitizeFilename(filename))
}
