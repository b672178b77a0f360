package utils

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"inspection-system/config"
	apperrors "inspection-system/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
)

// ValidateFile проверяет размер и настоящий MIME-тип файла по правилам контекста
// загрузки. Возвращает определённый тип без параметров; указатель файла
// возвращается в начало.
func ValidateFile(size int64, file io.ReadSeeker, contextName string) (string, error) {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return "", fmt.Errorf("неизвестный контекст загрузки: %s", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if size > maxSizeBytes {
			return "", apperrors.InvalidArgument("размер файла (%d KB) превышает лимит в %d MB", size/1024, rules.MaxSizeMB)
		}
	}
	if size == 0 {
		return "", apperrors.InvalidArgument("пустой файл")
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать файл для определения типа: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("не удалось сбросить указатель файла: %w", err)
	}

	mimeType := strings.SplitN(mtype.String(), ";", 2)[0]
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return "", apperrors.InvalidArgument("недопустимый тип файла: %s", mimeType)
	}
	return mimeType, nil
}

// IsEmbeddableImage проверяет сигнатуру JPEG/PNG.
func IsEmbeddableImage(data []byte) (string, bool) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/jpeg"):
		return "JPG", true
	case mtype.Is("image/png"):
		return "PNG", true
	}
	return "", false
}
