package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/entities"
	"inspection-system/internal/repositories"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/filestorage"
	"inspection-system/pkg/utils"
)

// Объекты моложе этого возраста сборщик не трогает: строка в media
// создаётся уже после загрузки объекта.
const orphanGracePeriod = time.Hour

type StoreMediaInput struct {
	CheckpointID uint64
	MediaType    string
	Filename     string
	Size         int64
	File         io.ReadSeeker
}

// FetchedMedia: у фото заполнен Data, у видео - RedirectURL.
type FetchedMedia struct {
	Media       entities.Media
	Data        []byte
	RedirectURL string
}

type ReconcileResult struct {
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	Deleted int      `json:"deleted"`
}

type MediaServiceInterface interface {
	Store(ctx context.Context, in StoreMediaInput) (*entities.Media, error)
	Fetch(ctx context.Context, mediaID uint64) (*FetchedMedia, error)
	Delete(ctx context.Context, mediaID uint64) error
	ResolveBytes(ctx context.Context, media entities.Media) ([]byte, error)
	PurgeObjects(ctx context.Context, keys []string) int
	ReconcileOrphans(ctx context.Context, dryRun bool) (*ReconcileResult, error)
}

type MediaService struct {
	txManager      repositories.TxManagerInterface
	mediaRepo      repositories.MediaRepositoryInterface
	checkpointRepo repositories.CheckpointRepositoryInterface
	storage        filestorage.FileStorageInterface
	presignTTL     time.Duration
	mediaURL       func(m entities.Media) string
	now            func() time.Time
	logger         *zap.Logger
}

func NewMediaService(
	txManager repositories.TxManagerInterface,
	mediaRepo repositories.MediaRepositoryInterface,
	checkpointRepo repositories.CheckpointRepositoryInterface,
	storage filestorage.FileStorageInterface,
	presignTTL time.Duration,
	publicBaseURL string,
	logger *zap.Logger,
) *MediaService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &MediaService{
		txManager:      txManager,
		mediaRepo:      mediaRepo,
		checkpointRepo: checkpointRepo,
		storage:        storage,
		presignTTL:     presignTTL,
		mediaURL:       MediaURLFunc(publicBaseURL),
		now:            time.Now,
		logger:         logger.Named("media_service"),
	}
}

func uploadContextFor(mediaType string) (constants.UploadContext, error) {
	switch mediaType {
	case constants.MediaTypePhoto:
		return constants.UploadContextInspectionPhoto, nil
	case constants.MediaTypeVideo:
		return constants.UploadContextInspectionVideo, nil
	}
	return "", apperrors.InvalidArgument("неизвестный тип медиа %q", mediaType)
}

// checkAttachable проверяет, что к точке сейчас можно прикрепить файл.
func (s *MediaService) checkAttachable(ctx context.Context, tx pgx.Tx, checkpointID uint64) error {
	cp, err := s.checkpointRepo.FindByID(ctx, tx, checkpointID)
	if err != nil {
		return err
	}
	guard := inspection.CanAttachMedia(inspection.AttachMediaContext{
		CheckpointID:     checkpointID,
		InspectionStatus: cp.InspectionStatus,
		CheckpointStatus: cp.StatusValue(),
	})
	return guard.Error()
}

func (s *MediaService) Store(ctx context.Context, in StoreMediaInput) (*entities.Media, error) {
	uploadContext, err := uploadContextFor(in.MediaType)
	if err != nil {
		return nil, err
	}
	mimeType, err := utils.ValidateFile(in.Size, in.File, uploadContext.String())
	if err != nil {
		return nil, err
	}
	if err := s.checkAttachable(ctx, nil, in.CheckpointID); err != nil {
		return nil, err
	}

	media := entities.Media{
		CheckpointID: in.CheckpointID,
		MediaType:    in.MediaType,
		Filename:     utils.SanitizeFilename(in.Filename),
		MimeType:     mimeType,
		Size:         in.Size,
	}

	if in.MediaType == constants.MediaTypePhoto {
		data, err := io.ReadAll(in.File)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать фото: %w", err)
		}
		media.Storage = constants.MediaStorageInline
		media.Data = data
		media.Size = int64(len(data))
	} else {
		key := filestorage.VideoKey(in.CheckpointID, s.now(), in.Filename)
		if err := s.storage.Put(ctx, key, in.File, in.Size, mimeType); err != nil {
			return nil, apperrors.ExternalService("хранилище", err)
		}
		media.Storage = constants.MediaStorageObject
		media.ObjectKey = &key
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Статус точки мог измениться, пока шла загрузка.
		if err := s.checkAttachable(ctx, tx, in.CheckpointID); err != nil {
			return err
		}
		id, err := s.mediaRepo.Create(ctx, tx, media)
		if err != nil {
			return err
		}
		media.ID = id
		return nil
	})
	if err != nil {
		if media.ObjectKey != nil {
			s.PurgeObjects(context.WithoutCancel(ctx), []string{*media.ObjectKey})
		}
		return nil, err
	}

	s.logger.Info("Медиафайл сохранён",
		zap.Uint64("mediaID", media.ID),
		zap.Uint64("checkpointID", media.CheckpointID),
		zap.String("storage", media.Storage),
		zap.Int64("size", media.Size))

	media.Data = nil
	media.URL = s.mediaURL(media)
	return &media, nil
}

func (s *MediaService) Fetch(ctx context.Context, mediaID uint64) (*FetchedMedia, error) {
	media, err := s.mediaRepo.FindByID(ctx, nil, mediaID, true)
	if err != nil {
		return nil, err
	}

	if media.Storage == constants.MediaStorageInline {
		data := media.Data
		media.Data = nil
		return &FetchedMedia{Media: *media, Data: data}, nil
	}

	if media.ObjectKey == nil {
		return nil, fmt.Errorf("медиафайл %d без ключа объекта", mediaID)
	}
	url, err := s.storage.URL(ctx, *media.ObjectKey, s.presignTTL)
	if err != nil {
		return nil, apperrors.ExternalService("хранилище", err)
	}
	return &FetchedMedia{Media: *media, RedirectURL: url}, nil
}

func (s *MediaService) Delete(ctx context.Context, mediaID uint64) error {
	media, err := s.mediaRepo.FindByID(ctx, nil, mediaID, false)
	if err != nil {
		return err
	}
	cp, err := s.checkpointRepo.FindByID(ctx, nil, media.CheckpointID)
	if err != nil {
		return err
	}
	if cp.InspectionStatus == constants.InspectionStatusCompleted {
		return apperrors.InvalidArgument("осмотр контрольной точки %d уже завершён", media.CheckpointID)
	}

	if media.ObjectKey != nil {
		s.PurgeObjects(ctx, []string{*media.ObjectKey})
	}
	return s.mediaRepo.Delete(ctx, nil, mediaID)
}

// ResolveBytes отдаёт содержимое файла для встраивания в отчёт.
func (s *MediaService) ResolveBytes(ctx context.Context, media entities.Media) ([]byte, error) {
	switch media.Storage {
	case constants.MediaStorageInline:
		if len(media.Data) > 0 {
			return media.Data, nil
		}
		full, err := s.mediaRepo.FindByID(ctx, nil, media.ID, true)
		if err != nil {
			return nil, err
		}
		return full.Data, nil
	case constants.MediaStorageObject:
		if media.ObjectKey == nil {
			return nil, fmt.Errorf("медиафайл %d без ключа объекта", media.ID)
		}
		rc, err := s.storage.Get(ctx, *media.ObjectKey)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("неизвестный тип хранения %q", media.Storage)
}

// PurgeObjects удаляет объекты без гарантий: ошибки только логируются.
// Возвращает число удалённых.
func (s *MediaService) PurgeObjects(ctx context.Context, keys []string) int {
	deleted := 0
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Не удалось удалить объект из хранилища", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted
}

// ReconcileOrphans находит объекты под media/, на которые не ссылается
// ни одна строка media, и удаляет их (кроме dryRun).
func (s *MediaService) ReconcileOrphans(ctx context.Context, dryRun bool) (*ReconcileResult, error) {
	keys, err := s.storage.List(ctx, constants.MediaObjectPrefix)
	if err != nil {
		return nil, apperrors.ExternalService("хранилище", err)
	}
	result := &ReconcileResult{Scanned: len(keys), Orphans: []string{}}
	if len(keys) == 0 {
		return result, nil
	}

	referenced, err := s.mediaRepo.ReferencedKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, key := range keys {
		if referenced[key] {
			continue
		}
		if uploadedAt, ok := objectUploadTime(key); ok && now.Sub(uploadedAt) < orphanGracePeriod {
			continue
		}
		result.Orphans = append(result.Orphans, key)
	}

	if !dryRun {
		result.Deleted = s.PurgeObjects(ctx, result.Orphans)
	}
	s.logger.Info("Сверка хранилища завершена",
		zap.Int("scanned", result.Scanned),
		zap.Int("orphans", len(result.Orphans)),
		zap.Int("deleted", result.Deleted),
		zap.Bool("dryRun", dryRun))
	return result, nil
}

// objectUploadTime достаёт epochMillis из имени вида {millis}-{filename}.
func objectUploadTime(key string) (time.Time, bool) {
	base := path.Base(key)
	prefix, _, found := strings.Cut(base, "-")
	if !found {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}
