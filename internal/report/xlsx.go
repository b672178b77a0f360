package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"inspection-system/internal/entities"
	"inspection-system/pkg/utils"
)

const inspectionsSheet = "Inspections"

var inspectionHeaders = []interface{}{
	"ID", "Equipment ID", "Technician ID", "Template ID", "Serial Number",
	"Task ID", "Freight ID", "Status", "Started", "Completed", "Remarks",
}

func inspectionRow(i *entities.Inspection) []interface{} {
	var templateID interface{}
	if i.TemplateID != nil {
		templateID = *i.TemplateID
	}
	var completed string
	if i.CompletedAt != nil {
		completed = formatTime(*i.CompletedAt)
	}
	return []interface{}{
		i.ID, i.EquipmentID, i.TechnicianID, templateID, utils.SafeDeref(i.SerialNumber),
		utils.SafeDeref(i.TaskID), utils.SafeDeref(i.FreightID), i.Status,
		formatTime(i.StartedAt), completed, utils.SafeDeref(i.TechnicianRemarks),
	}
}

// WriteInspectionsXLSX выгружает список осмотров одним листом.
func WriteInspectionsXLSX(w io.Writer, items []*entities.Inspection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inspectionsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(inspectionsSheet, "A1", &inspectionHeaders); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(inspectionHeaders))
	if err := f.SetCellStyle(inspectionsSheet, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for idx, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, idx+2)
		row := inspectionRow(item)
		if err := f.SetSheetRow(inspectionsSheet, cell, &row); err != nil {
			return fmt.Errorf("строка %d: %w", idx+2, err)
		}
	}
	_ = f.SetColWidth(inspectionsSheet, "E", "G", 18)
	_ = f.SetColWidth(inspectionsSheet, "I", "J", 22)
	_ = f.SetColWidth(inspectionsSheet, "K", "K", 40)

	return f.Write(w)
}
