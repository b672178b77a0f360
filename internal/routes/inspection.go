package routes

import (
	"inspection-system/internal/controllers"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

// Осмотры доступны всем ролям; выгрузка в Excel - только SUPERVISOR и ADMIN.
// Право на принудительное завершение проверяет сервис.
func runInspectionRouter(
	secureGroup *echo.Group,
	inspectionCtrl *controllers.InspectionController,
	reportCtrl *controllers.ReportController,
	authMW *middleware.AuthMiddleware,
) {
	inspections := secureGroup.Group("/inspections")
	{
		inspections.POST("", inspectionCtrl.StartInspection)
		inspections.GET("", inspectionCtrl.GetInspections)
		inspections.GET("/export.xlsx", reportCtrl.ExportXLSX, authMW.RequireRole(constants.RoleSupervisor))
		inspections.GET("/:id", inspectionCtrl.FindInspection)
		inspections.POST("/:id/mark-all-pass", inspectionCtrl.MarkAllPass)
		inspections.POST("/:id/complete", inspectionCtrl.CompleteInspection)
		inspections.DELETE("/:id", inspectionCtrl.StopInspection)
		inspections.GET("/:id/report.pdf", reportCtrl.DownloadPDF)
		inspections.POST("/:id/report/email", reportCtrl.SendEmail)
	}

	secureGroup.PATCH("/checkpoints/:id", inspectionCtrl.UpdateCheckpoint)
}
