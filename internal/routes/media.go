package routes

import (
	"inspection-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

// GET /media/:id открыт без токена: ссылка уходит в письмо и PDF, а получатель
// отчёта не обязан иметь учётную запись.
func runMediaRouter(api *echo.Group, secureGroup *echo.Group, mediaCtrl *controllers.MediaController) {
	api.GET("/media/:id", mediaCtrl.Fetch)
	secureGroup.POST("/checkpoints/:id/media", mediaCtrl.Upload)
	secureGroup.DELETE("/media/:id", mediaCtrl.Delete)
}
