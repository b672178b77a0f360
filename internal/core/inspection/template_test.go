package inspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-system/internal/entities"
)

func TestSectionCode(t *testing.T) {
	assert.Equal(t, "HYDRAU", SectionCode("Hydraulics & Boom", 1))
	assert.Equal(t, "BASKET", SectionCode("basket", 2))
	assert.Equal(t, "AB12", SectionCode(" a-b 1.2 ", 3))
	assert.Equal(t, "SEC4", SectionCode("---", 4))
	assert.Equal(t, "SEC1", SectionCode("", 1))
}

func TestFallbackSections(t *testing.T) {
	sections := FallbackSections()
	require.Len(t, sections, 1)
	assert.Equal(t, FallbackSectionName, sections[0].Name)

	var names []string
	for _, c := range sections[0].Checkpoints {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Visual Inspection", "Safety Features", "Operational Test", "Documentation"}, names)
}

func TestPlanSections_SortsAndRenumbers(t *testing.T) {
	plan := PlanSections([]entities.TemplateSection{
		{ID: 9, Name: "Platform", Order: 20, Checkpoints: []entities.TemplateCheckpoint{
			{ID: 3, Name: "Gate", Order: 5},
			{ID: 4, Name: "Rails", Critical: true, Order: 1},
		}},
		{ID: 8, Name: "Chassis", Order: 10},
		{ID: 7, Name: "!!!", Order: 30},
	})

	require.Len(t, plan, 3)
	assert.Equal(t, "Chassis", plan[0].Name)
	assert.Equal(t, 1, plan[0].Order)
	assert.Equal(t, "CHASSI", plan[0].Code)
	assert.Empty(t, plan[0].Checkpoints)

	assert.Equal(t, "PLATFO", plan[1].Code)
	require.Len(t, plan[1].Checkpoints, 2)
	assert.Equal(t, "Rails", plan[1].Checkpoints[0].Name)
	assert.True(t, plan[1].Checkpoints[0].Critical)
	assert.Equal(t, 1, plan[1].Checkpoints[0].Order)
	assert.Equal(t, 2, plan[1].Checkpoints[1].Order)
	assert.Zero(t, plan[1].Checkpoints[0].ID, "идентификаторы шаблона не копируются")
	assert.Nil(t, plan[1].Checkpoints[0].Status)

	assert.Equal(t, "SEC3", plan[2].Code)
}
