package csvio

import "strings"

// Download metadata for the generated template artifact.
const (
	TemplateFilename    = "feedback_calls_template.csv"
	TemplateContentType = "text/csv"
)

// Template is the column layout the provisioning backend expects for uploads.
type Template struct {
	Headers   []string `json:"headers"`
	SampleRow []string `json:"sampleRow"`
}

// Render produces the downloadable artifact: a header line and one sample row.
func (t Template) Render(delim string) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, delim))
	b.WriteString("\n")
	b.WriteString(strings.Join(t.SampleRow, delim))
	return b.String()
}
