package csvio_test

import (
	"strings"
	"testing"

	"feedback-call-platform/internal/csvio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		input       string
		wantHeaders []string
		wantRows    []csvio.Row
		wantErr     error
	}{
		"CommaDelimited_TwoRows": {
			input: "customerName,phoneNumber\nAlice,555-0100\nBob,555-0101\n",
			wantHeaders: []string{"customerName", "phoneNumber"},
			wantRows: []csvio.Row{
				{"customerName": "Alice", "phoneNumber": "555-0100"},
				{"customerName": "Bob", "phoneNumber": "555-0101"},
			},
		},
		"SemicolonInferredFromHeader": {
			input: "customerName;phoneNumber\nAlice;555-0100\n",
			wantHeaders: []string{"customerName", "phoneNumber"},
			wantRows: []csvio.Row{
				{"customerName": "Alice", "phoneNumber": "555-0100"},
			},
		},
		"QuotedFieldContainingDelimiter": {
			input: "customerName,vehicleNumber\n\"Doe, John\",KA-01-1234\n",
			wantHeaders: []string{"customerName", "vehicleNumber"},
			wantRows: []csvio.Row{
				{"customerName": "Doe, John", "vehicleNumber": "KA-01-1234"},
			},
		},
		"BackslashEscapedQuoteDoesNotToggle": {
			// The backslash keeps the inner quotes literal; only the outer pair is stripped.
			input: "customerName,serviceType\n\"say \\\"hi\\\"\",General\n",
			wantHeaders: []string{"customerName", "serviceType"},
			wantRows: []csvio.Row{
				{"customerName": `say \"hi\"`, "serviceType": "General"},
			},
		},
		"ShortRowPaddedWithEmptyStrings": {
			input: "a,b,c\nx\n",
			wantHeaders: []string{"a", "b", "c"},
			wantRows: []csvio.Row{
				{"a": "x", "b": "", "c": ""},
			},
		},
		"LongRowExcessFieldsDropped": {
			input: "a,b\n1,2,3,4\n",
			wantHeaders: []string{"a", "b"},
			wantRows: []csvio.Row{
				{"a": "1", "b": "2"},
			},
		},
		"BlankLinesAndCRLFSkipped": {
			input: "a,b\r\n\r\n1,2\r\n   \r\n3,4\r\n",
			wantHeaders: []string{"a", "b"},
			wantRows: []csvio.Row{
				{"a": "1", "b": "2"},
				{"a": "3", "b": "4"},
			},
		},
		"HeaderOnly_InsufficientRows": {
			input:   "a,b\n",
			wantErr: csvio.ErrInsufficientRows,
		},
		"Empty_InsufficientRows": {
			input:   "",
			wantErr: csvio.ErrInsufficientRows,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			doc, err := csvio.Parse(tc.input)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				var pe *csvio.ParseError
				assert.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHeaders, doc.Headers)
			assert.Equal(t, tc.wantRows, doc.Rows)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	// Fields containing the delimiter survive a serialize/parse cycle when quoted.
	headers := []string{"customerName", "serviceAdvisorName", "serviceType"}
	rows := [][]string{
		{"Doe, John", "Smith, Jane", "Oil, filter & brakes"},
		{"Plain", "NoComma", "General"},
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, r := range rows {
		b.WriteString("\n")
		quoted := make([]string, len(r))
		for i, f := range r {
			if strings.Contains(f, ",") {
				quoted[i] = `"` + f + `"`
			} else {
				quoted[i] = f
			}
		}
		b.WriteString(strings.Join(quoted, ","))
	}

	doc, err := csvio.Parse(b.String())
	require.NoError(t, err)
	require.Len(t, doc.Rows, len(rows))
	for i, r := range rows {
		for j, h := range headers {
			assert.Equal(t, r[j], doc.Rows[i][h], "row %d col %s", i, h)
		}
	}
}

func TestParse_RowOrderPreserved(t *testing.T) {
	doc, err := csvio.Parse("n\n1\n2\n3\n")
	require.NoError(t, err)
	got := make([]string, 0, len(doc.Rows))
	for _, r := range doc.Rows {
		got = append(got, r["n"])
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestTemplateRender(t *testing.T) {
	tpl := csvio.Template{
		Headers:   []string{"customerName", "phoneNumber"},
		SampleRow: []string{"John Doe", "+15550100"},
	}
	assert.Equal(t, "customerName,phoneNumber\nJohn Doe,+15550100", tpl.Render(","))
	assert.Equal(t, "feedback_calls_template.csv", csvio.TemplateFilename)
	assert.Equal(t, "text/csv", csvio.TemplateContentType)
}
