package routes

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inspection-system/internal/controllers"
	"inspection-system/internal/listeners"
	"inspection-system/internal/report"
	"inspection-system/internal/repositories"
	"inspection-system/internal/services"
	"inspection-system/pkg/config"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/filestorage"
	"inspection-system/pkg/mailer"
	"inspection-system/pkg/middleware"
	"inspection-system/pkg/service"
	"inspection-system/pkg/tasknotify"
	"inspection-system/pkg/telegram"
	"inspection-system/pkg/websocket"
)

type Loggers struct {
	Main       *zap.Logger
	Auth       *zap.Logger
	Inspection *zap.Logger
	Media      *zap.Logger
}

// Deps - долгоживущие компоненты, которыми владеет main.
type Deps struct {
	// Ctx живёт до остановки сервера; на нём крутятся фоновые задачи роутера.
	Ctx     context.Context
	DB      *pgxpool.Pool
	Redis   *redis.Client
	JWT     service.JWTService
	Storage filestorage.FileStorageInterface
	Bus     *eventbus.Bus
	Hub     *websocket.Hub
	Config  *config.Config
	Loggers *Loggers
}

// NewFileStorage выбирает MinIO, если задан endpoint, иначе локальный диск.
func NewFileStorage(ctx context.Context, cfg config.StorageConfig, publicBaseURL string, logger *zap.Logger) (filestorage.FileStorageInterface, error) {
	if cfg.Endpoint == "" {
		logger.Warn("STORAGE_ENDPOINT не задан, видео сохраняются на локальный диск", zap.String("path", cfg.LocalPath))
		local, err := filestorage.NewLocalFileStorage(cfg.LocalPath, publicBaseURL+"/uploads")
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	remote, err := filestorage.NewMinioFileStorage(ctx, filestorage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	}, logger)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// NewMediaService собирает сервис медиа; нужен и серверу, и сборщику сирот.
func NewMediaService(d *Deps) *services.MediaService {
	txManager := repositories.NewTxManager(d.DB, d.Loggers.Main)
	return services.NewMediaService(
		txManager,
		repositories.NewMediaRepository(d.DB, d.Loggers.Media),
		repositories.NewCheckpointRepository(d.DB, d.Loggers.Inspection),
		d.Storage,
		d.Config.Storage.PresignTTL,
		d.Config.Server.PublicBaseURL,
		d.Loggers.Media,
	)
}

func InitRouter(e *echo.Echo, d *Deps) {
	cfg := d.Config
	loggers := d.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(d.JWT, loggers.Auth)
	txManager := repositories.NewTxManager(d.DB, loggers.Main)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(d.DB, loggers.Auth)
	cacheRepo := repositories.NewRedisCacheRepository(d.Redis)
	equipmentRepo := repositories.NewEquipmentRepository(d.DB, loggers.Main)
	templateRepo := repositories.NewTemplateRepository(d.DB, loggers.Main)
	inspectionRepo := repositories.NewInspectionRepository(d.DB, loggers.Inspection)
	checkpointRepo := repositories.NewCheckpointRepository(d.DB, loggers.Inspection)
	mediaRepo := repositories.NewMediaRepository(d.DB, loggers.Media)

	// --- 2. СЕРВИСЫ ---
	var recipients []string
	if cfg.Report.FallbackEmail != "" {
		recipients = []string{cfg.Report.FallbackEmail}
	}

	authService := services.NewAuthService(userRepo, cacheRepo, cfg.Auth, loggers.Auth)
	userService := services.NewUserService(txManager, userRepo, loggers.Main)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, loggers.Main)
	templateService := services.NewTemplateService(txManager, templateRepo, loggers.Main)
	inspectionService := services.NewInspectionService(
		txManager, equipmentRepo, templateRepo, inspectionRepo, checkpointRepo, mediaRepo,
		d.Bus, recipients, cfg.Server.PublicBaseURL, loggers.Inspection,
	)
	mediaService := NewMediaService(d)

	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, loggers.Main)
	reportService := services.NewReportService(
		inspectionService,
		report.NewGenerator(mediaService, loggers.Main),
		smtpMailer,
		cfg.Report.FallbackEmail,
		loggers.Main,
	)

	// --- 3. СЛУШАТЕЛИ ---
	listeners.NewNotificationListener(
		reportService,
		tasknotify.New(cfg.Task.Endpoint, cfg.Task.Token, cfg.Task.Timeout, loggers.Main),
		telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.ChatID),
		mediaService,
		d.Hub,
		loggers.Main,
	).Register(d.Bus)

	// --- 4. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, d.JWT, loggers.Auth)
	userCtrl := controllers.NewUserController(userService, loggers.Main)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, loggers.Main)
	templateCtrl := controllers.NewTemplateController(templateService, loggers.Main)
	inspectionCtrl := controllers.NewInspectionController(inspectionService, loggers.Inspection)
	mediaCtrl := controllers.NewMediaController(mediaService, loggers.Media)
	dedup := controllers.NewRequestDeduplicator()
	go dedup.Cleanup(d.Ctx, time.Minute)
	reportCtrl := controllers.NewReportController(reportService, dedup, loggers.Main)
	wsCtrl := controllers.NewWebSocketController(d.Hub, d.JWT, cfg.Server.AllowedOrigins, loggers.Main)

	// --- 5. РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW)
	runUserRouter(secureGroup, userCtrl, authMW)
	runEquipmentRouter(secureGroup, equipmentCtrl, authMW)
	runTemplateRouter(secureGroup, templateCtrl, authMW)
	runInspectionRouter(secureGroup, inspectionCtrl, reportCtrl, authMW)
	runMediaRouter(api, secureGroup, mediaCtrl)
	api.GET("/ws", wsCtrl.ServeWs)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}
