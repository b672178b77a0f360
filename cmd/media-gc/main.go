package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"inspection-system/internal/routes"
	"inspection-system/pkg/config"
	"inspection-system/pkg/database/postgresql"
	applogger "inspection-system/pkg/logger"

	"go.uber.org/zap"
)

// media-gc удаляет из хранилища объекты под media/, на которые не ссылается
// ни одна строка media. Запускается по расписанию (cron, k8s CronJob).
func main() {
	dryRun := flag.Bool("dry-run", false, "только показать сирот, ничего не удалять")
	flag.Parse()

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.Paths).Named("media-gc")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	storage, err := routes.NewFileStorage(ctx, cfg.Storage, cfg.Server.PublicBaseURL, logger)
	if err != nil {
		logger.Fatal("не удалось создать файловое хранилище", zap.Error(err))
	}

	mediaService := routes.NewMediaService(&routes.Deps{
		DB:      dbConn,
		Storage: storage,
		Config:  cfg,
		Loggers: &routes.Loggers{Main: logger, Auth: logger, Inspection: logger, Media: logger},
	})

	res, err := mediaService.ReconcileOrphans(ctx, *dryRun)
	if err != nil {
		logger.Fatal("сборка сирот прервана", zap.Error(err))
	}
	logger.Info("Сборка сирот завершена",
		zap.Bool("dryRun", *dryRun),
		zap.Int("scanned", res.Scanned),
		zap.Int("orphans", len(res.Orphans)),
		zap.Int("deleted", res.Deleted),
	)
	for _, key := range res.Orphans {
		logger.Debug("Сирота", zap.String("key", key))
	}
}
