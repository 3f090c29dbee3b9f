package pdf

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"acquisition-pdf-pipeline/internal/domain"
)

func testSubmission(formType domain.FormType) domain.Submission {
	return domain.Submission{
		ID:       42,
		FormType: formType,
		Fields: map[string]string{
			domain.FieldFullName:      "Jane Doe",
			domain.FieldEmail:         "jane@example.com",
			domain.FieldIndustry:      "Manufacturing",
			domain.FieldLocation:      "Austin, TX",
			domain.FieldPurchasePrice: "1250000",
			domain.FieldRevenue:       "3400000.50",
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer("Business Acquisition Services")

	for _, formType := range []domain.FormType{
		domain.FormTypeLOI,
		domain.FormTypeCIM,
		domain.FormTypeCIMTraining,
		domain.FormTypeLoL,
	} {
		var buf bytes.Buffer
		err := r.Render(testSubmission(formType), &buf)
		require.NoError(t, err, "form type %s", formType)
		require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "form type %s", formType)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("Business Acquisition Services")
	sub := testSubmission(domain.FormTypeCIM)

	var first, second bytes.Buffer
	require.NoError(t, r.Render(sub, &first))
	require.NoError(t, r.Render(sub, &second))
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestRenderRejectsDefectiveSubmissions(t *testing.T) {
	r := NewRenderer("Business Acquisition Services")

	sub := testSubmission(domain.FormTypeLOI)
	delete(sub.Fields, domain.FieldFullName)

	var buf bytes.Buffer
	err := r.Render(sub, &buf)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, domain.FieldFullName, vErr.Field)

	sub = testSubmission(domain.FormType("UNKNOWN"))
	err = r.Render(sub, &buf)
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "form_type", vErr.Field)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "loi_overview_Jane_Doe_42.pdf", FileName(testSubmission(domain.FormTypeLOI)))
	require.Equal(t, "cim_overview_Jane_Doe_42.pdf", FileName(testSubmission(domain.FormTypeCIM)))

	anon := testSubmission(domain.FormTypeLOI)
	anon.Fields[domain.FieldFullName] = "///"
	require.Equal(t, "loi_overview_unnamed_42.pdf", FileName(anon))
}

func TestFieldValuesFallbacksAndCurrency(t *testing.T) {
	sub := testSubmission(domain.FormTypeLOI)
	delete(sub.Fields, domain.FieldIndustry)

	lay, ok := layoutFor(domain.FormTypeLOI)
	require.True(t, ok)

	byLabel := make(map[string]string)
	for _, row := range fieldValues(sub, lay.Fields) {
		byLabel[row.Label] = row.Value
	}

	require.Equal(t, "$1,250,000", byLabel["Purchase Price"])
	require.Equal(t, "Not specified", byLabel["Industry"])
}

func TestFormatCurrency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw      string
		fallback string
		want     string
	}{
		{raw: "1250000", fallback: "Not specified", want: "$1,250,000"},
		{raw: "$3,400,000.50", fallback: "Not specified", want: "$3,400,001"},
		{raw: "950", fallback: "Not specified", want: "$950"},
		{raw: "0", fallback: "Not specified", want: "$0"},
		{raw: "-1234.6", fallback: "Not specified", want: "-$1,235"},
		{raw: "-1250000", fallback: "Not specified", want: "-$1,250,000"},
		{raw: "around five million", fallback: "Not specified", want: "Not specified"},
		{raw: "", fallback: "Not specified", want: "Not specified"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FormatCurrency(tc.raw, tc.fallback), "raw=%q", tc.raw)
	}
}
