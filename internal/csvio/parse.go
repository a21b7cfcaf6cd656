package csvio

import (
	"strings"
)

// Row maps a header name to the raw field value of one data line.
type Row map[string]string

// Document is the result of tokenizing one uploaded file.
type Document struct {
	Headers   []string
	Delimiter byte
	Rows      []Row
}

// Parse tokenizes raw uploaded text into structured rows.
//
// The delimiter is inferred once from the header line: semicolon if present,
// else comma. Lines split on CRLF or LF; blank lines are skipped. Fields are
// scanned by a finite-state tokenizer; a double quote toggles quoting unless
// immediately preceded by a backslash. This dialect intentionally matches the
// template the provisioning backend hands out, which backslash-escapes quotes
// instead of doubling them.
//
// Short rows are padded with empty strings up to the header count; extra
// trailing fields are discarded. A single pair of surrounding quotes per field
// is stripped after splitting.
func Parse(text string) (Document, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return Document{}, &ParseError{Err: ErrInsufficientRows}
	}

	delim := inferDelimiter(lines[0])
	headers := make([]string, 0)
	for _, h := range splitFields(lines[0], delim) {
		headers = append(headers, strings.TrimSpace(stripQuotes(h)))
	}
	if len(headers) == 0 {
		return Document{}, &ParseError{Line: 1, Err: ErrNoHeaders}
	}

	doc := Document{Headers: headers, Delimiter: delim, Rows: make([]Row, 0, len(lines)-1)}
	for _, line := range lines[1:] {
		fields := splitFields(line, delim)
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = stripQuotes(fields[i])
			} else {
				row[h] = ""
			}
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func inferDelimiter(header string) byte {
	if strings.ContainsRune(header, ';') {
		return ';'
	}
	return ','
}

// Tokenizer states. afterQuote is kept distinct from field so the machine
// mirrors the grammar: a closed quoted section may be followed by more
// characters or reopened before the next delimiter.
type scanState int

const (
	stateField scanState = iota
	stateQuoted
	stateAfterQuote
)

// splitFields tokenizes one line. Quote characters are preserved in the field
// buffer; surrounding-quote stripping happens after splitting.
func splitFields(line string, delim byte) []string {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	state := stateField

	for i := 0; i < len(line); i++ {
		ch := line[i]
		escaped := ch == '"' && i > 0 && line[i-1] == '\\'

		switch state {
		case stateField, stateAfterQuote:
			switch {
			case ch == '"' && !escaped:
				state = stateQuoted
				cur.WriteByte(ch)
			case ch == delim:
				fields = append(fields, cur.String())
				cur.Reset()
				state = stateField
			default:
				cur.WriteByte(ch)
			}
		case stateQuoted:
			if ch == '"' && !escaped {
				state = stateAfterQuote
			}
			// Delimiters inside quotes are data.
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
