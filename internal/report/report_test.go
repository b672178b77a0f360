package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/utils"
)

type mapResolver map[uint64][]byte

func (r mapResolver) ResolveBytes(ctx context.Context, m entities.Media) ([]byte, error) {
	data, ok := r[m.ID]
	if !ok {
		return nil, errors.New("нет данных")
	}
	return data, nil
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func sampleDetail() *entities.InspectionDetail {
	completed := time.Date(2026, 5, 2, 16, 45, 0, 0, time.UTC)
	return &entities.InspectionDetail{
		Inspection: entities.Inspection{
			ID:           17,
			Status:       constants.InspectionStatusCompleted,
			TaskID:       utils.ToPtr("T-100"),
			FreightID:    utils.ToPtr("FR-9"),
			StartedAt:    time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
			CompletedAt:  &completed,
			SerialNumber: nil,
		},
		Equipment: entities.Equipment{
			Type: constants.EquipmentTypeScissorLift, Model: "Genie GS-1930", SerialNumber: "GS19 300/1",
			Location: "Yard B", HoursUsed: 812.5, Status: constants.EquipmentStatusMaintenance,
		},
		Technician:   entities.UserShort{ID: 3, Name: "Alex Doe", Email: "alex@example.com"},
		TemplateName: utils.ToPtr("Scissor lift pre-rental"),
	}
}

func checkpoint(id uint64, name, status string, critical bool, hours *float64, media ...entities.Media) entities.CheckpointDetail {
	cp := entities.CheckpointDetail{
		Checkpoint: entities.Checkpoint{ID: id, Name: name, Critical: critical, Order: int(id), EstimatedHours: hours},
		Media:      media,
	}
	if status != "" {
		cp.Status = utils.ToPtr(status)
	}
	return cp
}

func TestOverviewAndEmailAgree(t *testing.T) {
	detail := sampleDetail()

	content, err := GenerateEmailContent(detail)
	require.NoError(t, err)

	assert.Equal(t, "Inspection Report - Scissor lift pre-rental - [Freight FR-9] - [Task T-100] - Genie GS-1930 (GS19 300/1)", content.Subject)
	assert.Equal(t, "inspection-GS19_300_1-20260502.pdf", content.Filename)
	for _, f := range Overview(detail) {
		assert.Contains(t, content.Text, f.Label+": "+f.Value)
	}
	assert.Contains(t, content.HTML, "alex@example.com")
	assert.Contains(t, content.HTML, "&lt;alex@example.com&gt;", "значения экранируются")
}

func TestSubject_OmitsMissingParts(t *testing.T) {
	detail := sampleDetail()
	detail.TemplateName = nil
	detail.TaskID = nil
	detail.FreightID = nil
	detail.SerialNumber = utils.ToPtr("OVERRIDE-1")

	assert.Equal(t, "Inspection Report - Standard Inspection - Genie GS-1930 (OVERRIDE-1)", Subject(detail))
}

func TestEmail_ListsOnlyVideos(t *testing.T) {
	detail := sampleDetail()
	detail.Sections = []entities.SectionDetail{{
		Section: entities.Section{Name: "Deck", Order: 1},
		Checkpoints: []entities.CheckpointDetail{
			checkpoint(1, "Guard rails", constants.CheckpointStatusCorrected, false, nil,
				entities.Media{ID: 5, MediaType: constants.MediaTypePhoto, Filename: "rail.jpg", URL: "http://x/api/media/5"},
				entities.Media{ID: 6, MediaType: constants.MediaTypeVideo, Filename: "rail.mp4", URL: "http://x/api/media/6"},
			),
		},
	}}

	content, err := GenerateEmailContent(detail)
	require.NoError(t, err)

	assert.Contains(t, content.Text, "1. Guard rails: rail.mp4 - http://x/api/media/6")
	assert.NotContains(t, content.Text, "rail.jpg")
	assert.Contains(t, content.HTML, `<a href="http://x/api/media/6">rail.mp4</a>`)
}

// pdfText достаёт строки операторов Tj. Для UTF-8 шрифта они лежат в UTF-16BE
// с PDF-экранированием скобок и обратной косой черты.
func pdfText(out []byte) string {
	var sb strings.Builder
	rest := out
	for {
		i := bytes.Index(rest, []byte("Td ("))
		if i < 0 {
			break
		}
		rest = rest[i+len("Td ("):]
		var raw []byte
		j := 0
		for ; j < len(rest) && rest[j] != ')'; j++ {
			if rest[j] == '\\' && j+1 < len(rest) {
				j++
				if rest[j] == 'r' {
					raw = append(raw, '\r')
				} else {
					raw = append(raw, rest[j])
				}
				continue
			}
			raw = append(raw, rest[j])
		}
		rest = rest[j:]
		units := make([]uint16, 0, len(raw)/2)
		for k := 0; k+1 < len(raw); k += 2 {
			units = append(units, uint16(raw[k])<<8|uint16(raw[k+1]))
		}
		sb.WriteString(string(utf16.Decode(units)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func newTestGenerator(resolver MediaResolver) *Generator {
	g := NewGenerator(resolver, zap.NewNop())
	g.compress = false
	g.now = func() time.Time { return time.Date(2026, 5, 2, 17, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerateInspectionPDF_MediaFallbacks(t *testing.T) {
	detail := sampleDetail()
	detail.Sections = []entities.SectionDetail{{
		Section: entities.Section{Name: "Platform", Order: 1},
		Checkpoints: []entities.CheckpointDetail{
			checkpoint(1, "Guard rails", constants.CheckpointStatusActionRequired, true, utils.ToPtr(1.5),
				entities.Media{ID: 10, MediaType: constants.MediaTypePhoto, Filename: "good.jpg", URL: "http://x/api/media/10"},
				entities.Media{ID: 11, MediaType: constants.MediaTypePhoto, Filename: "broken.jpg", URL: "http://x/api/media/11"},
				entities.Media{ID: 12, MediaType: constants.MediaTypePhoto, Filename: "missing.jpg", URL: "http://x/api/media/12"},
				entities.Media{ID: 13, MediaType: constants.MediaTypeVideo, Filename: "walk.mp4", URL: "http://x/api/media/13"},
			),
			checkpoint(2, "Decals", "", false, nil),
		},
	}}
	resolver := mapResolver{
		10: testJPEG(t),
		11: append([]byte{0xff, 0xd8, 0xff}, []byte("not really a jpeg")...),
	}

	out, err := newTestGenerator(resolver).GenerateInspectionPDF(context.Background(), detail)
	require.NoError(t, err)
	pdf := string(out)
	text := pdfText(out)

	assert.True(t, strings.HasPrefix(pdf, "%PDF-"))
	assert.Equal(t, 1, strings.Count(pdf, "/Subtype /Image"), "встроено только корректное фото")
	assert.NotContains(t, text, "good.jpg: http")
	assert.Contains(t, text, "broken.jpg: http://x/api/media/11")
	assert.Contains(t, text, "missing.jpg: http://x/api/media/12")
	assert.Contains(t, text, "walk.mp4: http://x/api/media/13")
	assert.Contains(t, text, "ACTION REQUIRED")
	assert.Contains(t, text, "CRITICAL")
	assert.Contains(t, text, "NOT SET")
	assert.Contains(t, text, "Estimated hours: 1.5")
	assert.Regexp(t, `Page 1 of \d+`, text)
	assert.Contains(t, text, "Generated 2026-05-02 17:00 UTC")
}

func TestPDFAndEmail_KeepNonLatinText(t *testing.T) {
	detail := sampleDetail()
	detail.Technician.Name = "Łukasz Nowak"
	detail.Equipment.Location = "Склад 2"
	detail.Sections = []entities.SectionDetail{{
		Section: entities.Section{Name: "Платформа", Order: 1},
		Checkpoints: []entities.CheckpointDetail{
			checkpoint(1, "Ограждение", constants.CheckpointStatusActionRequired, false, nil),
		},
	}}
	detail.Sections[0].Checkpoints[0].Notes = utils.ToPtr("Трещина сварного шва (левая сторона)")

	content, err := GenerateEmailContent(detail)
	require.NoError(t, err)
	out, err := newTestGenerator(mapResolver{}).GenerateInspectionPDF(context.Background(), detail)
	require.NoError(t, err)
	text := pdfText(out)

	for _, f := range Overview(detail) {
		assert.Contains(t, content.Text, f.Value)
		assert.Contains(t, text, f.Value, "поле %s", f.Label)
	}
	assert.Contains(t, text, "Łukasz Nowak")
	assert.Contains(t, text, "1. Платформа")
	assert.Contains(t, text, "Ограждение")
	assert.Contains(t, text, "Трещина сварного шва (левая сторона)")
}

func TestGenerateInspectionPDF_PaginatesAndStampsEveryPage(t *testing.T) {
	detail := sampleDetail()
	long := strings.Repeat("hydraulic hose abrasion near the lower boom pivot ", 12)
	var cps []entities.CheckpointDetail
	for i := 1; i <= 40; i++ {
		cps = append(cps, checkpoint(uint64(i), fmt.Sprintf("Checkpoint %d", i), constants.CheckpointStatusCorrected, false, nil))
		cps[len(cps)-1].Notes = utils.ToPtr(long)
	}
	detail.Sections = []entities.SectionDetail{{Section: entities.Section{Name: "Boom", Order: 1}, Checkpoints: cps}}

	out, err := newTestGenerator(mapResolver{}).GenerateInspectionPDF(context.Background(), detail)
	require.NoError(t, err)

	text := pdfText(out)
	matches := regexp.MustCompile(`Page (\d+) of (\d+)`).FindAllStringSubmatch(text, -1)
	require.Greater(t, len(matches), 1)
	total := matches[0][2]
	seen := map[string]bool{}
	for _, m := range matches {
		assert.Equal(t, total, m[2])
		seen[m[1]] = true
	}
	assert.Equal(t, fmt.Sprint(len(matches)), total)
	assert.Len(t, seen, len(matches))
	assert.Equal(t, len(matches), strings.Count(text, "Generated 2026-05-02 17:00 UTC"))
}

func TestWrap_GreedyWithinWidth(t *testing.T) {
	d := newDocument(false)
	d.font("", 10, colorText)

	lines := d.wrap("the quick brown fox jumps over the lazy dog "+strings.Repeat("x", 200), 40)

	require.Greater(t, len(lines), 2)
	for _, line := range lines {
		assert.LessOrEqual(t, d.width(line), 40.0)
	}
	// Жадность: следующее слово не помещалось в предыдущую строку.
	first := strings.Fields(lines[1])[0]
	assert.Greater(t, d.width(lines[0]+" "+first), 40.0)
}

func TestGenerateInspectionPDF_CancelledContext(t *testing.T) {
	detail := sampleDetail()
	detail.Sections = []entities.SectionDetail{{
		Section:     entities.Section{Name: "A", Order: 1},
		Checkpoints: []entities.CheckpointDetail{checkpoint(1, "x", constants.CheckpointStatusPass, false, nil)},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator(mapResolver{}).GenerateInspectionPDF(ctx, detail)
	assert.ErrorIs(t, err, context.Canceled)
}
