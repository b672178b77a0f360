package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/internal/services"
	"inspection-system/pkg/customvalidator"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
	"inspection-system/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInspectionService struct {
	services.InspectionServiceInterface
	created      bool
	completeErr  error
	lastComplete dto.CompleteInspectionDTO
}

func (f *fakeInspectionService) GetOrCreate(ctx context.Context, payload dto.StartInspectionDTO) (*entities.InspectionDetail, bool, error) {
	if payload.EquipmentID == 404 {
		return nil, false, apperrors.NotFound("техника", payload.EquipmentID)
	}
	detail := &entities.InspectionDetail{}
	detail.ID = 11
	return detail, f.created, nil
}

func (f *fakeInspectionService) Complete(ctx context.Context, id uint64, payload dto.CompleteInspectionDTO) (*services.CompletionResult, error) {
	f.lastComplete = payload
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &services.CompletionResult{InspectionID: id, EquipmentStatus: "OPERATIONAL"}, nil
}

type fakeReportService struct {
	sent int
	err  error
}

func (f *fakeReportService) RenderPDF(ctx context.Context, id uint64) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "inspection-SN-20260314.pdf", nil
}

func (f *fakeReportService) SendReport(ctx context.Context, id uint64, to []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent++
	return "<m@test>", nil
}

func (f *fakeReportService) ExportInspectionsXLSX(ctx context.Context, w io.Writer, filter types.Filter) error {
	_, err := w.Write([]byte("PK"))
	return err
}

type fakeMediaService struct {
	services.MediaServiceInterface
}

func (f *fakeMediaService) Fetch(ctx context.Context, id uint64) (*services.FetchedMedia, error) {
	switch id {
	case 1:
		return &services.FetchedMedia{
			Media: entities.Media{ID: 1, Filename: "a.jpg", MimeType: "image/jpeg"},
			Data:  []byte{0xFF, 0xD8, 0xFF},
		}, nil
	case 2:
		return &services.FetchedMedia{RedirectURL: "https://storage.local/media/videos/1/v.mp4?sig=x"}, nil
	}
	return nil, apperrors.NotFound("медиафайл", id)
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v := validator.New()
	require.NoError(t, customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)
	return e
}

// withActor имитирует middleware авторизации.
func withActor(userID uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := utils.WithActor(c.Request().Context(), utils.Actor{UserID: userID, Role: role})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func call(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStartInspection(t *testing.T) {
	e := newEcho(t)
	svc := &fakeInspectionService{}
	ctrl := NewInspectionController(svc, zap.NewNop())
	e.POST("/inspections", ctrl.StartInspection, withActor(1, "TECHNICIAN"))

	rec := call(e, http.MethodPost, "/inspections", `{"equipmentId": 5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, false, body["body"].(map[string]interface{})["created"])

	svc.created = true
	rec = call(e, http.MethodPost, "/inspections", `{"equipmentId": 5}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = call(e, http.MethodPost, "/inspections", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, http.MethodPost, "/inspections", `{"equipmentId": 404}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["status"])
	assert.Contains(t, body["message"], "техника")
}

func TestCompleteInspection_BodyIsOptional(t *testing.T) {
	e := newEcho(t)
	svc := &fakeInspectionService{}
	ctrl := NewInspectionController(svc, zap.NewNop())
	e.POST("/inspections/:id/complete", ctrl.CompleteInspection, withActor(1, "SUPERVISOR"))

	rec := call(e, http.MethodPost, "/inspections/3/complete", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.lastComplete.Force)

	rec = call(e, http.MethodPost, "/inspections/3/complete", `{"force": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastComplete.Force)

	svc.completeErr = apperrors.InvalidArgument("есть незаполненные точки")
	rec = call(e, http.MethodPost, "/inspections/3/complete", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, http.MethodPost, "/inspections/abc/complete", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendReport_RejectsRepeatedClicks(t *testing.T) {
	e := newEcho(t)
	svc := &fakeReportService{}
	ctrl := NewReportController(svc, NewRequestDeduplicator(), zap.NewNop())
	e.POST("/inspections/:id/report/email", ctrl.SendEmail, withActor(9, "TECHNICIAN"))

	body := `{"to": ["ops@example.com"]}`
	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/inspections/1/report/email", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, call(e, http.MethodPost, "/inspections/1/report/email", body).Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/inspections/2/report/email", body).Code)
	assert.Equal(t, 2, svc.sent)

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/inspections/3/report/email", `{"to": ["not-an-email"]}`).Code)
}

func TestSendReport_FailureReleasesLock(t *testing.T) {
	e := newEcho(t)
	svc := &fakeReportService{err: apperrors.ExternalService("smtp", errors.New("connection refused"))}
	ctrl := NewReportController(svc, NewRequestDeduplicator(), zap.NewNop())
	e.POST("/inspections/:id/report/email", ctrl.SendEmail, withActor(9, "TECHNICIAN"))

	body := `{"to": ["ops@example.com"]}`
	assert.Equal(t, http.StatusBadGateway, call(e, http.MethodPost, "/inspections/1/report/email", body).Code)

	svc.err = nil
	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/inspections/1/report/email", body).Code)
}

func TestDownloadPDFAndExport(t *testing.T) {
	e := newEcho(t)
	ctrl := NewReportController(&fakeReportService{}, NewRequestDeduplicator(), zap.NewNop())
	e.GET("/inspections/:id/report.pdf", ctrl.DownloadPDF)
	e.GET("/inspections/export.xlsx", ctrl.ExportXLSX)

	rec := call(e, http.MethodGet, "/inspections/1/report.pdf", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "inspection-SN-20260314.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = call(e, http.MethodGet, "/inspections/export.xlsx", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMime, rec.Header().Get(echo.HeaderContentType))
}

func TestMediaFetch(t *testing.T) {
	e := newEcho(t)
	ctrl := NewMediaController(&fakeMediaService{}, zap.NewNop())
	e.GET("/media/:id", ctrl.Fetch)

	rec := call(e, http.MethodGet, "/media/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, rec.Body.Bytes())

	rec = call(e, http.MethodGet, "/media/2", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://storage.local/media/videos/1/v.mp4?sig=x", rec.Header().Get(echo.HeaderLocation))

	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/media/3", "").Code)
}

func TestRequestDeduplicator(t *testing.T) {
	d := NewRequestDeduplicator()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	assert.True(t, d.TryAcquire(1, "k", time.Minute))
	assert.False(t, d.TryAcquire(1, "k", time.Minute))
	assert.True(t, d.TryAcquire(2, "k", time.Minute))

	now = now.Add(61 * time.Second)
	assert.True(t, d.TryAcquire(1, "k", time.Minute))

	d.Release(1, "k")
	assert.True(t, d.TryAcquire(1, "k", time.Minute))
}
