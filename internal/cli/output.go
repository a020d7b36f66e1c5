package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printer writes command output, colored when the terminal allows it.
type printer struct {
	out       io.Writer
	useColors bool
}

func newPrinter(out io.Writer, noColor bool) *printer {
	return &printer{out: out, useColors: !noColor && !color.NoColor}
}

// Info prints an informational message.
func (p *printer) Info(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Warning prints a warning, used for empty and degraded results.
func (p *printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.out, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[WARN] "+format+"\n", args...)
}

// Header prints a section header.
func (p *printer) Header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Stars renders a 1..5 rating as filled and empty stars.
func (p *printer) Stars(rating int) string {
	rating = max(0, min(5, rating))
	s := strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
	if p.useColors {
		return color.YellowString(s)
	}
	return s
}

// JSON writes v indented.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows under headers without borders.
func (p *printer) Table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func optInt(v *int, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + unit
}

func optRating(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
