package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/internal/repositories"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
	"inspection-system/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type UserService struct {
	txManager repositories.TxManagerInterface
	userRepo  repositories.UserRepositoryInterface
	logger    *zap.Logger
}

func NewUserService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		txManager: txManager,
		userRepo:  userRepo,
		logger:    logger.Named("user_service"),
	}
}

func UserToDTO(u *entities.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, UserToDTO(u))
	}
	return out, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	u, err := s.userRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	res := UserToDTO(u)
	return &res, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	if !constants.Contains(constants.Roles, payload.Role) {
		return nil, apperrors.InvalidArgument("неизвестная роль %q", payload.Role)
	}
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.userRepo.Create(ctx, nil, entities.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Role:         payload.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Пользователь создан", zap.Uint64("id", id), zap.String("role", payload.Role))
	return s.FindUser(ctx, id)
}

// ensureAdminRemains вызывается внутри транзакции: CountByRole блокирует
// строки администраторов до коммита.
func (s *UserService) ensureAdminRemains(ctx context.Context, tx pgx.Tx, target *entities.User) error {
	if target.Role != constants.RoleAdmin {
		return nil
	}
	admins, err := s.userRepo.CountByRole(ctx, tx, constants.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperrors.Conflict("нельзя убрать последнего администратора")
	}
	return nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		u, err := s.userRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if payload.Role.Valid && payload.Role.String != u.Role {
			if !constants.Contains(constants.Roles, payload.Role.String) {
				return apperrors.InvalidArgument("неизвестная роль %q", payload.Role.String)
			}
			if err := s.ensureAdminRemains(ctx, tx, u); err != nil {
				return err
			}
			u.Role = payload.Role.String
		}
		if payload.Name.Valid {
			u.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Email.Valid {
			u.Email = strings.ToLower(strings.TrimSpace(payload.Email.String))
		}
		if err := s.userRepo.Update(ctx, tx, *u); err != nil {
			return err
		}

		if payload.Password.Valid {
			hash, err := utils.HashPassword(payload.Password.String)
			if err != nil {
				return err
			}
			return s.userRepo.UpdatePassword(ctx, tx, id, hash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.FindUser(ctx, id)
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		u, err := s.userRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.ensureAdminRemains(ctx, tx, u); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Пользователь удалён", zap.Uint64("id", id))
	return nil
}
