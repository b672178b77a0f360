package seeders

import (
	"context"
	"log"
	"strings"

	"inspection-system/pkg/constants"
	"inspection-system/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedAdminUser(ctx context.Context, db *pgxpool.Pool, creds AdminCredentials) error {
	email := strings.ToLower(creds.Email)
	log.Printf("  - Создание пользователя '%s'...", email)

	var exists bool
	if err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		log.Println("    - Пользователь уже существует. Пропускаем.")
		return nil
	}

	hashedPassword, err := utils.HashPassword(creds.Password)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx,
		`INSERT INTO users (name, email, role, password_hash) VALUES ($1, $2, $3, $4)`,
		creds.Name, email, constants.RoleAdmin, hashedPassword,
	)
	return err
}
