package main

import (
	"context"
	"flag"
	"log"

	"inspection-system/pkg/config"
	"inspection-system/pkg/database/postgresql"
	applogger "inspection-system/pkg/logger"
	"inspection-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runAdmin := flag.Bool("admin", false, "Создать администратора (SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD)")
	runTemplates := flag.Bool("templates", false, "Наполнить шаблоны осмотра по умолчанию")
	runEquipment := flag.Bool("equipment", false, "Добавить демо-технику")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -admin -templates -equipment)")

	flag.Parse()

	if !*runAdmin && !*runTemplates && !*runEquipment && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -admin")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.Paths)
	dbPool, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN, logger)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if err := postgresql.Migrate(dbPool, logger); err != nil {
		log.Fatalf("❌ Не удалось применить миграции: %v", err)
	}

	log.Println("======================================================")

	if *runAll || *runAdmin {
		seeders.SeedAdmin(dbPool, seeders.AdminFromEnv())
		log.Println("======================================================")
	}
	if *runAll || *runTemplates {
		seeders.SeedTemplates(dbPool)
		log.Println("======================================================")
	}
	if *runAll || *runEquipment {
		seeders.SeedDemoEquipment(dbPool)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
