package inspection

import (
	"fmt"
	"sort"

	"inspection-system/internal/entities"
	"inspection-system/pkg/utils"
)

const (
	FallbackSectionName = "General Inspection"
	sectionCodeLength   = 6
)

// FallbackSections - чек-лист на случай, когда для типа техники нет шаблона.
func FallbackSections() []entities.TemplateSection {
	return []entities.TemplateSection{{
		Name:  FallbackSectionName,
		Order: 1,
		Checkpoints: []entities.TemplateCheckpoint{
			{Name: "Visual Inspection", Order: 1},
			{Name: "Safety Features", Critical: true, Order: 2},
			{Name: "Operational Test", Critical: true, Order: 3},
			{Name: "Documentation", Order: 4},
		},
	}}
}

// SectionCode: верхний регистр, только [A-Z0-9], не длиннее 6 символов.
// Пустой результат заменяется на SEC<position>.
func SectionCode(name string, position int) string {
	if code := utils.GenerateCodeFromName(name, sectionCodeLength); code != "" {
		return code
	}
	return fmt.Sprintf("SEC%d", position)
}

// PlanSections снимает копию шаблона для нового осмотра. Порядок
// разделов и точек нормализуется в 1..n, идентификаторы не переносятся.
func PlanSections(template []entities.TemplateSection) []entities.SectionDetail {
	sections := append([]entities.TemplateSection(nil), template...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })

	plan := make([]entities.SectionDetail, 0, len(sections))
	for i, ts := range sections {
		position := i + 1
		checkpoints := append([]entities.TemplateCheckpoint(nil), ts.Checkpoints...)
		sort.SliceStable(checkpoints, func(a, b int) bool { return checkpoints[a].Order < checkpoints[b].Order })

		sd := entities.SectionDetail{
			Section: entities.Section{
				Name:  ts.Name,
				Code:  SectionCode(ts.Name, position),
				Order: position,
			},
			Checkpoints: make([]entities.CheckpointDetail, 0, len(checkpoints)),
		}
		for j, tc := range checkpoints {
			sd.Checkpoints = append(sd.Checkpoints, entities.CheckpointDetail{
				Checkpoint: entities.Checkpoint{Name: tc.Name, Critical: tc.Critical, Order: j + 1},
			})
		}
		plan = append(plan, sd)
	}
	return plan
}
