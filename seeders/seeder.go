package seeders

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminCredentials берутся из SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD.
type AdminCredentials struct {
	Name     string
	Email    string
	Password string
}

func AdminFromEnv() AdminCredentials {
	creds := AdminCredentials{
		Name:     "Администратор",
		Email:    os.Getenv("SEED_ADMIN_EMAIL"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if creds.Email == "" {
		creds.Email = "admin@inspection.local"
	}
	if creds.Password == "" {
		creds.Password = "Password123!"
	}
	return creds
}

// SeedAdmin создаёт первого администратора; без него в систему не войти.
func SeedAdmin(db *pgxpool.Pool, creds AdminCredentials) {
	ctx := context.Background()
	log.Println("▶️  Создание администратора...")
	if err := seedAdminUser(ctx, db, creds); err != nil {
		log.Fatalf("❌ Ошибка создания администратора: %v", err)
	}
	log.Println("✅ Администратор готов!")
}

// SeedTemplates наполняет чек-листы по умолчанию. Существующие шаблоны с тем же
// именем не трогаются.
func SeedTemplates(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения шаблонов осмотра...")
	if err := seedTemplates(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения шаблонов: %v", err)
	}
	log.Println("✅ Наполнение шаблонов завершено!")
}

// SeedDemoEquipment добавляет несколько единиц техники для ручной проверки.
func SeedDemoEquipment(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения демо-техники...")
	if err := seedEquipments(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения техники: %v", err)
	}
	log.Println("✅ Наполнение техники завершено!")
}
