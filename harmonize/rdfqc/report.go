package rdfqc

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
)

// maxReportRows caps the rows rendered per check; the tab-separated output is never capped.
const maxReportRows = 500

// Markdown renders results as a GFM report, one section per check.
func Markdown(source string, generated time.Time, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ontology QC report\n\n")
	fmt.Fprintf(&b, "- Source: `%s`\n- Generated: %s\n\n", source, generated.Format(time.RFC3339))

	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n", r.Check)
		if c, err := Lookup(r.Check); err == nil {
			fmt.Fprintf(&b, "%s\n\n", c.Description)
		}
		fmt.Fprintf(&b, "%d row(s).\n\n", len(r.Rows))
		if len(r.Rows) > 0 {
			writeTable(&b, r)
		}
		if c, err := Lookup(r.Check); err == nil && c.Query != "" {
			fmt.Fprintf(&b, "Equivalent SPARQL:\n\n```sparql\n%s\n```\n\n", strings.TrimSpace(c.Query))
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, r Result) {
	b.WriteString("| " + strings.Join(r.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(r.Columns)) + "\n")
	rows := r.Rows
	if len(rows) > maxReportRows {
		rows = rows[:maxReportRows]
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strings.ReplaceAll(fileutils.SanitizeNewlines(v), "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(r.Rows) > maxReportRows {
		fmt.Fprintf(b, "\n_%d more row(s) not shown._\n", len(r.Rows)-maxReportRows)
	}
	b.WriteString("\n")
}

// HTML converts a markdown report into a standalone HTML page.
func HTML(title, markdown string) ([]byte, error) {
	var content bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	var out bytes.Buffer
	out.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	out.WriteString(html.EscapeString(title))
	out.WriteString("</title><style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 6px}</style></head><body>")
	out.Write(content.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// WriteReport writes a markdown report to path when it ends in .md, HTML otherwise.
func WriteReport(path, source string, generated time.Time, results []Result) error {
	md := Markdown(source, generated, results)
	data := []byte(md)
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		var err error
		data, err = HTML("Ontology QC report", md)
		if err != nil {
			return fmt.Errorf("WriteReport: %w", err)
		}
	}
	if err := fileutils.WriteFileAtomicSameDir(path, data, 0o644); err != nil {
		return fmt.Errorf("WriteReport: %w", err)
	}
	return nil
}
