package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inspection-system/internal/entities"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
)

const (
	userTable  = "users"
	userFields = "id, name, email, role, password_hash, created_at, updated_at"
)

var userAllowedFilterFields = map[string]string{"role": "role"}
var userAllowedSortFields = map[string]string{"id": "id", "name": "name", "email": "email", "createdAt": "created_at"}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.User, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, u entities.User) error
	UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	// CountByRole блокирует найденные строки, чтобы проверка последнего
	// администратора не гонялась с параллельным удалением.
	CountByRole(ctx context.Context, tx pgx.Tx, role string) (int, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func (r *UserRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования users: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) findOne(ctx context.Context, querier Querier, where sq.Eq) (*entities.User, error) {
	query, args, err := psql.Select(userFields).From(userTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для users: %w", err)
	}
	return scanUser(querier.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	u, err := r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("пользователь", id)
	}
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.User, uint64, error) {
	return fetchPage(ctx, r.storage, ListSpec{
		Table:         userTable,
		Columns:       userFields,
		SearchColumns: []string{"name", "email"},
		Filters:       userAllowedFilterFields,
		Sortable:      userAllowedSortFields,
		DefaultSort:   "id DESC",
	}, filter, scanUser)
}

func (r *UserRepository) Create(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error) {
	query, args, err := psql.Insert(userTable).
		Columns("name", "email", "role", "password_hash").
		Values(u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Role, u.PasswordHash).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if IsUniqueViolation(err) {
			return 0, apperrors.Conflict("пользователь с email %s уже существует", u.Email)
		}
		return 0, fmt.Errorf("ошибка создания users: %w", err)
	}
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, tx pgx.Tx, u entities.User) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(userTable).
		Set("name", u.Name).
		Set("email", strings.ToLower(strings.TrimSpace(u.Email))).
		Set("role", u.Role).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": u.ID}))
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Conflict("пользователь с email %s уже существует", u.Email)
		}
		return fmt.Errorf("ошибка обновления users: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("пользователь", u.ID)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(userTable).
		Set("password_hash", passwordHash).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID}))
	if err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("пользователь", userID)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(userTable).Where(sq.Eq{"id": id}))
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return apperrors.Conflict("пользователя %d нельзя удалить: за ним числятся осмотры", id)
		}
		return fmt.Errorf("ошибка удаления users: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("пользователь", id)
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, tx pgx.Tx, role string) (int, error) {
	ids, err := queryAll(ctx, r.getQuerier(tx),
		psql.Select("id").From(userTable).Where(sq.Eq{"role": role}).Suffix("FOR UPDATE"),
		func(row pgx.Row) (uint64, error) {
			var id uint64
			err := row.Scan(&id)
			return id, err
		})
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return len(ids), nil
}
