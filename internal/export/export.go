// Package export renders the task list as JSON, CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/nibzard/todos-go/internal/todo"
)

// Formats returns the supported format names.
func Formats() []string {
	return []string{"json", "csv", "pdf"}
}

// Options tweaks rendering.
type Options struct {
	// Title is printed at the top of PDF reports.
	Title string
	// Now stamps PDF reports. Zero means time.Now.
	Now time.Time
}

// Export renders tasks in the named format.
//
// PDF output uses the built-in Arial font, which covers Windows-1252 only.
// Characters outside that code page (CJK, emoji and most symbols) are printed
// as "?". JSON and CSV keep the text as is.
func Export(tasks []todo.Task, format string, opts Options) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return exportJSON(tasks)
	case "csv":
		return exportCSV(tasks)
	case "pdf":
		return exportPDF(tasks, opts)
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

func exportJSON(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func exportCSV(tasks []todo.Task) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"id", "text", "completed"}); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := w.Write([]string{strconv.FormatInt(t.ID, 10), t.Text, strconv.FormatBool(t.Completed)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func exportPDF(tasks []todo.Task, opts Options) ([]byte, error) {
	title := opts.Title
	if title == "" {
		title = "Todo List"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	open, done := todo.Counts(tasks)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr(pdfText(title)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("%s  -  %d open, %d done", now.Format("2006-01-02 15:04"), open, done))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%s %s", box, pdfText(t.Text))), "0", "L", false)
	}
	if len(tasks) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.Cell(40, 7, "No tasks.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfText replaces runes the core PDF fonts cannot show with '?'.
func pdfText(s string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok {
			return r
		}
		return '?'
	}, s)
}
