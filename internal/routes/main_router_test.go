package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"inspection-system/pkg/config"
	"inspection-system/pkg/customvalidator"
	"inspection-system/pkg/database/postgresql"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/service"
	"inspection-system/pkg/utils"
	"inspection-system/pkg/websocket"
	"inspection-system/seeders"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// InspectionTestSuite гоняет полный цикл осмотра через HTTP на живых
// PostgreSQL и Redis. Без TEST_DATABASE_URL и TEST_REDIS_ADDRESS пропускается.
type InspectionTestSuite struct {
	suite.Suite
	Echo   *echo.Echo
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Bus    *eventbus.Bus
	cancel context.CancelFunc
	Token  string
}

func (s *InspectionTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	redisAddr := os.Getenv("TEST_REDIS_ADDRESS")
	if dsn == "" || redisAddr == "" {
		s.T().Skip("TEST_DATABASE_URL / TEST_REDIS_ADDRESS не заданы")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	nopLogger := zap.NewNop()

	cfg := config.New()
	cfg.Postgres.DSN = dsn
	cfg.Redis.Address = redisAddr
	cfg.Storage.Endpoint = ""
	cfg.Storage.LocalPath = s.T().TempDir()
	cfg.Report.FallbackEmail = ""
	cfg.Task.Endpoint = ""
	cfg.Telegram.BotToken = ""

	db, err := postgresql.ConnectDB(ctx, dsn, nopLogger)
	s.Require().NoError(err)
	s.Require().NoError(postgresql.Migrate(db, nopLogger))

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 1})
	s.Require().NoError(redisClient.Ping(ctx).Err())

	storage, err := NewFileStorage(ctx, cfg.Storage, cfg.Server.PublicBaseURL, nopLogger)
	s.Require().NoError(err)

	e := echo.New()
	v := validator.New()
	s.Require().NoError(customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)

	s.Bus = eventbus.New(nopLogger, time.Second)
	hub := websocket.NewHub(nopLogger)
	go hub.Run(ctx)

	InitRouter(e, &Deps{
		Ctx:     ctx,
		DB:      db,
		Redis:   redisClient,
		JWT:     service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
		Storage: storage,
		Bus:     s.Bus,
		Hub:     hub,
		Config:  cfg,
		Loggers: &Loggers{Main: nopLogger, Auth: nopLogger, Inspection: nopLogger, Media: nopLogger},
	})

	s.Echo = e
	s.DB = db
	s.Redis = redisClient

	creds := seeders.AdminCredentials{
		Name:     "Тестовый Администратор",
		Email:    fmt.Sprintf("admin_%d@example.com", time.Now().UnixNano()),
		Password: "password123",
	}
	seeders.SeedAdmin(db, creds)
	seeders.SeedTemplates(db)

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": creds.Email, "password": creds.Password})
	s.Require().Equal(http.StatusOK, rec.Code, "Логин администратора. Body: %s", rec.Body.String())
	s.Token = s.body(rec)["accessToken"].(string)
	s.Require().NotEmpty(s.Token)
}

func (s *InspectionTestSuite) TearDownSuite() {
	if s.cancel == nil {
		return
	}
	s.Bus.Wait()
	s.cancel()
	s.DB.Close()
	s.Redis.Close()
}

func (s *InspectionTestSuite) do(method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if s.Token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.Token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *InspectionTestSuite) body(rec *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	data, _ := resp["body"].(map[string]interface{})
	return data
}

func (s *InspectionTestSuite) TestFullInspectionWorkflow() {
	var equipmentID, inspectionID uint64

	s.Run("1_CreateEquipment", func() {
		rec := s.do(http.MethodPost, "/api/equipment", map[string]interface{}{
			"type":         "BOOM_LIFT",
			"model":        "Genie Z-45",
			"serialNumber": fmt.Sprintf("TEST-%d", time.Now().UnixNano()),
			"location":     "Площадка 1",
		})
		s.Require().Equal(http.StatusCreated, rec.Code, "Body: %s", rec.Body.String())
		equipmentID = uint64(s.body(rec)["id"].(float64))
	})

	s.Run("2_StartInspectionIsIdempotent", func() {
		rec := s.do(http.MethodPost, "/api/inspections", map[string]interface{}{"equipmentId": equipmentID})
		s.Require().Equal(http.StatusCreated, rec.Code, "Body: %s", rec.Body.String())
		insp := s.body(rec)["inspection"].(map[string]interface{})
		inspectionID = uint64(insp["id"].(float64))
		s.NotEmpty(insp["sections"])

		rec = s.do(http.MethodPost, "/api/inspections", map[string]interface{}{"equipmentId": equipmentID})
		s.Equal(http.StatusOK, rec.Code)
		again := s.body(rec)["inspection"].(map[string]interface{})
		s.Equal(float64(inspectionID), again["id"])
	})

	id := strconv.FormatUint(inspectionID, 10)

	s.Run("3_CompleteWithUnsetCheckpointsFails", func() {
		rec := s.do(http.MethodPost, "/api/inspections/"+id+"/complete", nil)
		s.Equal(http.StatusBadRequest, rec.Code, "Body: %s", rec.Body.String())
	})

	s.Run("4_MarkAllPassAndComplete", func() {
		rec := s.do(http.MethodPost, "/api/inspections/"+id+"/mark-all-pass", nil)
		s.Require().Equal(http.StatusOK, rec.Code, "Body: %s", rec.Body.String())
		s.Greater(s.body(rec)["updated"].(float64), float64(0))

		rec = s.do(http.MethodPost, "/api/inspections/"+id+"/complete", nil)
		s.Require().Equal(http.StatusOK, rec.Code, "Body: %s", rec.Body.String())
		s.Equal("OPERATIONAL", s.body(rec)["equipmentStatus"])

		rec = s.do(http.MethodPost, "/api/inspections/"+id+"/complete", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("5_DownloadPDF", func() {
		rec := s.do(http.MethodGet, "/api/inspections/"+id+"/report.pdf", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("application/pdf", rec.Header().Get(echo.HeaderContentType))
		s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})

	s.Run("6_UnauthorizedWithoutToken", func() {
		token := s.Token
		s.Token = ""
		defer func() { s.Token = token }()
		rec := s.do(http.MethodGet, "/api/inspections/"+id, nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func TestInspectionTestSuite(t *testing.T) {
	suite.Run(t, new(InspectionTestSuite))
}
