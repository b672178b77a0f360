// Файл: pkg/utils/context_utils.go

package utils

import (
	"context"

	"inspection-system/pkg/contextkeys"
	apperrors "inspection-system/pkg/errors"
)

// Actor - аутентифицированный пользователь текущего запроса.
type Actor struct {
	UserID uint64
	Role   string
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.UserID)
	return context.WithValue(ctx, contextkeys.UserRoleKey, actor.Role)
}

func GetActorFromCtx(ctx context.Context) (Actor, error) {
	userID, err := GetUserIDFromCtx(ctx)
	if err != nil {
		return Actor{}, err
	}
	role, _ := ctx.Value(contextkeys.UserRoleKey).(string)
	return Actor{UserID: userID, Role: role}, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}
