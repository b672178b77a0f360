package routes

import (
	"inspection-system/internal/controllers"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runEquipmentRouter(secureGroup *echo.Group, equipmentCtrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)

	secureGroup.GET("/equipment", equipmentCtrl.GetEquipments)
	secureGroup.GET("/equipment/:id", equipmentCtrl.FindEquipment)
	secureGroup.POST("/equipment", equipmentCtrl.CreateEquipment, adminOnly)
	secureGroup.POST("/equipment/import", equipmentCtrl.ImportEquipment, adminOnly)
	secureGroup.PUT("/equipment/:id", equipmentCtrl.UpdateEquipment, adminOnly)
	secureGroup.DELETE("/equipment/:id", equipmentCtrl.DeleteEquipment, adminOnly)
}
