package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/utils"
)

// Геометрия страницы, мм.
const (
	pageMargin     = 15.0
	footerReserve  = 10.0
	lineHeight     = 5.5
	labelWidth     = 42.0
	checkpointPad  = 4.0
	badgeHeight    = 6.0
	maxImageHeight = 110.0
	fontFamily     = "Go"
)

// MediaResolver отдаёт содержимое файла; для объектного хранилища
// байты читаются напрямую, без редиректа.
type MediaResolver interface {
	ResolveBytes(ctx context.Context, media entities.Media) ([]byte, error)
}

type Generator struct {
	resolver MediaResolver
	logger   *zap.Logger
	now      func() time.Time
	compress bool
}

func NewGenerator(resolver MediaResolver, logger *zap.Logger) *Generator {
	return &Generator{
		resolver: resolver,
		logger:   logger.Named("report"),
		now:      time.Now,
		compress: true,
	}
}

type rgb struct{ r, g, b int }

var (
	colorText  = rgb{36, 41, 47}
	colorMuted = rgb{110, 118, 129}
	colorWhite = rgb{255, 255, 255}
	colorRed   = rgb{207, 34, 46}

	badgeColors = map[string]rgb{
		constants.CheckpointStatusPass:           {46, 160, 67},
		constants.CheckpointStatusCorrected:      {31, 111, 235},
		constants.CheckpointStatusActionRequired: colorRed,
		constants.CheckpointStatusNotApplicable:  colorMuted,
	}
	unsetBadge = rgb{175, 184, 193}
)

// document держит курсор и геометрию; все блоки выводятся через line,
// поэтому правило переноса и пагинации одно для всего отчёта.
// Шрифт встраивается как UTF-8 TrueType: имена и заметки бывают на любом языке.
type document struct {
	pdf          *fpdf.Fpdf
	pageWidth    float64
	pageHeight   float64
	contentWidth float64
	bottom       float64
}

func newDocument(compress bool) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(compress)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)

	w, h := pdf.GetPageSize()
	d := &document{
		pdf:          pdf,
		pageWidth:    w,
		pageHeight:   h,
		contentWidth: w - 2*pageMargin,
		bottom:       h - pageMargin - footerReserve,
	}
	pdf.AddPage()
	return d
}

// ensureSpace начинает новую страницу, если блок высотой h не помещается.
func (d *document) ensureSpace(h float64) {
	if d.pdf.GetY()+h > d.bottom {
		d.pdf.AddPage()
		d.pdf.SetY(pageMargin)
	}
}

func (d *document) font(style string, size float64, c rgb) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *document) width(s string) float64 {
	return d.pdf.GetStringWidth(s)
}

// wrap - жадный перенос по словам с замером текущим шрифтом.
// Слово шире строки режется по символам.
func (d *document) wrap(text string, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for d.width(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head, tail := d.splitWord(word, width)
				lines = append(lines, head)
				word = tail
			}
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if d.width(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (d *document) splitWord(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && d.width(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// text выводит абзац с отступом indent от левого поля.
func (d *document) text(s string, indent float64) {
	for _, line := range d.wrap(s, d.contentWidth-indent) {
		d.ensureSpace(lineHeight)
		d.pdf.SetX(pageMargin + indent)
		d.pdf.CellFormat(d.contentWidth-indent, lineHeight, line, "", 1, "L", false, 0, "")
	}
}

func (d *document) heading(s string, size float64) {
	d.pdf.Ln(2)
	d.font("B", size, colorText)
	d.ensureSpace(lineHeight * 2)
	d.text(s, 0)
	d.pdf.Ln(1)
}

func (d *document) keyValue(label, value string) {
	d.font("", 10, colorText)
	lines := d.wrap(value, d.contentWidth-labelWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	for i, line := range lines {
		d.ensureSpace(lineHeight)
		d.pdf.SetX(pageMargin)
		if i == 0 {
			d.font("B", 10, colorText)
			d.pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "L", false, 0, "")
			d.font("", 10, colorText)
		} else {
			d.pdf.CellFormat(labelWidth, lineHeight, "", "", 0, "L", false, 0, "")
		}
		d.pdf.CellFormat(d.contentWidth-labelWidth, lineHeight, line, "", 1, "L", false, 0, "")
	}
}

// badge рисует цветную плашку в текущей строке без перевода строки.
func (d *document) badge(label string, fill rgb) {
	d.font("B", 8, colorWhite)
	d.pdf.SetFillColor(fill.r, fill.g, fill.b)
	w := d.width(label) + 4
	d.pdf.CellFormat(w, badgeHeight, label, "", 0, "C", true, 0, "")
	d.pdf.CellFormat(2, badgeHeight, "", "", 0, "L", false, 0, "")
}

// GenerateInspectionPDF строит отчёт. Ошибки отдельных медиа не прерывают
// генерацию: вместо изображения выводится строка "<файл>: <ссылка>".
func (g *Generator) GenerateInspectionPDF(ctx context.Context, detail *entities.InspectionDetail) ([]byte, error) {
	d := newDocument(g.compress)
	generatedAt := g.now()

	d.pdf.SetTitle(Subject(detail), true)
	d.pdf.SetCreator("inspection-system", false)
	d.pdf.SetCreationDate(generatedAt)

	d.font("B", 18, colorText)
	d.text("Equipment Inspection Report", 0)
	d.font("", 11, colorMuted)
	d.text(fmt.Sprintf("Inspection #%d - %s", detail.ID, TemplateName(detail)), 0)

	d.heading("Overview", 13)
	for _, f := range Overview(detail) {
		d.keyValue(f.Label, f.Value)
	}

	summary := inspection.Summarize(detail.Checkpoints())
	d.heading("Summary", 13)
	d.keyValue("Checkpoints", fmt.Sprintf("%d", summary.Total))
	d.keyValue("Pass", fmt.Sprintf("%d", summary.Pass))
	d.keyValue("Corrected", fmt.Sprintf("%d", summary.Corrected))
	d.keyValue("Action Required", fmt.Sprintf("%d", summary.ActionRequired))
	d.keyValue("Not Applicable", fmt.Sprintf("%d", summary.NotApplicable))
	if summary.Unset > 0 {
		d.keyValue("Not Set", fmt.Sprintf("%d", summary.Unset))
	}
	d.keyValue("Critical Issues", fmt.Sprintf("%d", summary.CriticalIssues))
	d.keyValue("Estimated Hours", fmt.Sprintf("%.1f", summary.EstimatedHours))

	for _, section := range detail.Sections {
		d.heading(fmt.Sprintf("%d. %s", section.Order, section.Name), 12)
		for _, cp := range section.Checkpoints {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			g.checkpoint(ctx, d, cp)
		}
	}

	stampFooters(d, generatedAt)

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка формирования PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) checkpoint(ctx context.Context, d *document, cp entities.CheckpointDetail) {
	d.pdf.Ln(1)
	d.font("B", 10, colorText)
	d.text(cp.Name, checkpointPad)

	status := cp.StatusValue()
	label, fill := "NOT SET", unsetBadge
	if status != "" {
		label, fill = strings.ReplaceAll(status, "_", " "), badgeColors[status]
	}
	d.ensureSpace(badgeHeight + 1)
	d.pdf.SetX(pageMargin + checkpointPad)
	d.badge(label, fill)
	if cp.Critical {
		d.badge("CRITICAL", colorRed)
	}
	d.pdf.Ln(badgeHeight + 1)

	d.font("", 10, colorText)
	if notes := utils.SafeDeref(cp.Notes); notes != "" {
		d.text("Notes: "+notes, checkpointPad)
	}
	if cp.EstimatedHours != nil {
		d.text(fmt.Sprintf("Estimated hours: %.1f", *cp.EstimatedHours), checkpointPad)
	}

	for _, m := range cp.Media {
		if m.MediaType == constants.MediaTypePhoto && g.embedImage(ctx, d, m) {
			continue
		}
		d.font("", 9, colorMuted)
		d.text(fmt.Sprintf("%s: %s", m.Filename, m.URL), checkpointPad)
	}
}

// embedImage встраивает фото; false означает, что нужна текстовая замена.
func (g *Generator) embedImage(ctx context.Context, d *document, m entities.Media) bool {
	data, err := g.resolver.ResolveBytes(ctx, m)
	if err != nil {
		g.logger.Warn("Не удалось получить фото для отчёта", zap.Uint64("mediaID", m.ID), zap.Error(err))
		return false
	}
	kind, ok := utils.IsEmbeddableImage(data)
	if !ok {
		return false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		g.logger.Warn("Фото не декодируется", zap.Uint64("mediaID", m.ID), zap.Error(err))
		return false
	}

	name := fmt.Sprintf("media-%d", m.ID)
	opts := fpdf.ImageOptions{ImageType: kind}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if d.pdf.Err() {
		g.logger.Warn("Фото не принято генератором PDF", zap.Uint64("mediaID", m.ID), zap.Error(d.pdf.Error()))
		d.pdf.ClearError()
		return false
	}

	w := d.contentWidth - checkpointPad
	h := w * float64(cfg.Height) / float64(cfg.Width)
	if h > maxImageHeight {
		h = maxImageHeight
		w = h * float64(cfg.Width) / float64(cfg.Height)
	}
	d.ensureSpace(h + 2)
	y := d.pdf.GetY()
	d.pdf.ImageOptions(name, pageMargin+checkpointPad, y, w, h, false, opts, 0, "")
	d.pdf.SetY(y + h + 2)
	return true
}

// stampFooters - последний проход: общее число страниц известно только сейчас.
func stampFooters(d *document, generatedAt time.Time) {
	total := d.pdf.PageCount()
	footerY := d.pageHeight - pageMargin - footerReserve/2
	for n := 1; n <= total; n++ {
		d.pdf.SetPage(n)
		d.font("", 8, colorMuted)
		d.pdf.SetXY(pageMargin, footerY)
		half := d.contentWidth / 2
		d.pdf.CellFormat(half, lineHeight, "Generated "+formatTime(generatedAt), "", 0, "L", false, 0, "")
		d.pdf.CellFormat(half, lineHeight, fmt.Sprintf("Page %d of %d", n, total), "", 0, "R", false, 0, "")
	}
}
