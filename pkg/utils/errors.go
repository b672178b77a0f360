package utils

import (
	"errors"
	"net/http"

	apperrors "inspection-system/pkg/errors"
)

// ErrorStatusList сопоставляет доменные ошибки HTTP-кодам. Порядок важен:
// первая совпавшая через errors.Is запись выигрывает.
var ErrorStatusList = []struct {
	Err  error
	Code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrInvalidArgument, http.StatusBadRequest},
	{apperrors.ErrConflict, http.StatusConflict},
	{apperrors.ErrAccountLocked, http.StatusTooManyRequests},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotAccess, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotRefresh, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrExternalService, http.StatusBadGateway},
}

// StatusFor возвращает HTTP-код для ошибки и признак того, что ошибка известна.
func StatusFor(err error) (int, bool) {
	for _, item := range ErrorStatusList {
		if errors.Is(err, item.Err) {
			return item.Code, true
		}
	}
	return http.StatusInternalServerError, false
}
