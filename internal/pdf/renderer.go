package pdf

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"acquisition-pdf-pipeline/internal/domain"
)

const timestampLayout = "January 2, 2006 at 3:04 PM"

// Renderer turns a submission's field map into a PDF report. Rendering is
// deterministic: the only timestamp embedded in the output is the
// submission's own creation time, so rendering the same row twice yields
// byte-identical documents.
type Renderer struct {
	CompanyName string
}

func NewRenderer(companyName string) *Renderer {
	return &Renderer{CompanyName: companyName}
}

type labelValue struct {
	Label string
	Value string
}

// Render writes the report for sub to w. Missing required fields fail with
// a ValidationError naming the field; missing optional fields render their
// placeholder text. Render performs no remote I/O.
func (r *Renderer) Render(sub domain.Submission, w io.Writer) error {
	if err := domain.ValidateForRender(sub); err != nil {
		return err
	}
	lay, ok := layoutFor(sub.FormType)
	if !ok {
		return &domain.ValidationError{Field: "form_type", Reason: "no layout for " + string(sub.FormType)}
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(lay.Title, false)
	doc.SetAuthor(r.CompanyName, false)
	doc.SetCreationDate(sub.CreatedAt.UTC())
	doc.SetAutoPageBreak(true, 18)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, lay.Title, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, 6, r.CompanyName, "", 1, "C", false, 0, "")
	doc.CellFormat(0, 6, "Generated "+sub.CreatedAt.Format(timestampLayout), "", 1, "C", false, 0, "")
	doc.Ln(4)
	doc.SetTextColor(0, 0, 0)

	for _, row := range fieldValues(sub, lay.Fields) {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(62, 7, row.Label, "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 7, row.Value, "", "L", false)
	}

	for _, section := range lay.Narratives {
		value := strings.TrimSpace(sub.Fields[section.Key])
		if value == "" {
			value = section.Fallback
		}
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 8, section.Label, "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, value, "", "L", false)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// FileName derives the document name for a submission, e.g.
// "loi_overview_Jane_Doe_42.pdf".
func FileName(sub domain.Submission) string {
	lay, ok := layoutFor(sub.FormType)
	prefix := "submission_overview"
	if ok {
		prefix = lay.FilePrefix
	}
	return fmt.Sprintf("%s_%s_%d.pdf", prefix, sanitizeName(sub.FullName()), sub.ID)
}

func fieldValues(sub domain.Submission, specs []fieldSpec) []labelValue {
	rows := make([]labelValue, 0, len(specs))
	for _, spec := range specs {
		value := strings.TrimSpace(sub.Fields[spec.Key])
		if value == "" {
			rows = append(rows, labelValue{Label: spec.Label, Value: spec.Fallback})
			continue
		}
		if currencyKeys[spec.Key] {
			value = FormatCurrency(value, spec.Fallback)
		}
		rows = append(rows, labelValue{Label: spec.Label, Value: value})
	}
	return rows
}

// FormatCurrency renders a numeric field as "$1,250,000". Unparseable
// values fall back to the placeholder rather than failing the render.
func FormatCurrency(raw string, fallback string) string {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return fallback
	}
	rounded := int64(math.Round(n))
	if rounded < 0 {
		return "-$" + groupThousands(-rounded)
	}
	return "$" + groupThousands(rounded)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func sanitizeName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		}
		return -1
	}, strings.TrimSpace(name))
	if mapped == "" {
		return "unnamed"
	}
	return mapped
}
