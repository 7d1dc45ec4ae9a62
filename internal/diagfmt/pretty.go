package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"locheck/internal/diag"
	"locheck/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgCyan),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее):
//
//	error[MISSING_KEY]: <message>
//	  --> <path>:<line>:<col>
//	   |
//	 3 | T("key")
//	   |   ^^^^^
//	   = note: <note> (<path>:<line>:<col>)
//	   = fix: <title> [<id>]
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var b strings.Builder
	sev := p.severity(d.Severity)
	fmt.Fprintf(&b, "%s%s %s\n",
		sev.Sprint(d.Severity.Label()),
		sev.Sprint("["+d.Code.ID()+"]:"),
		p.bold.Sprint(d.Message))

	file := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)
	gutterWidth := len(strconv.FormatUint(uint64(end.Line), 10))
	pad := strings.Repeat(" ", gutterWidth)

	fmt.Fprintf(&b, "%s%s %s:%d:%d\n", pad, p.gutter.Sprint("-->"),
		formatPath(fs, d.Primary.File, opts.PathMode), start.Line, start.Col)

	if file != nil && file.LineCount() > 0 {
		fmt.Fprintf(&b, "%s %s\n", pad, p.gutter.Sprint("|"))
		first := start.Line
		last := start.Line
		if ctx := uint32(max(opts.Context, 0)); ctx > 0 {
			first = max(1, start.Line-min(start.Line-1, ctx))
			last = min(file.LineCount(), start.Line+ctx)
		}
		for ln := first; ln <= last; ln++ {
			line := strings.TrimRight(file.GetLine(ln), "\r")
			shown := truncate(line, opts.Width)
			fmt.Fprintf(&b, "%*d %s %s\n", gutterWidth, ln, p.gutter.Sprint("|"), shown)
			if ln == start.Line {
				fmt.Fprintf(&b, "%s %s %s\n", pad, p.gutter.Sprint("|"), p.caret.Sprint(underline(line, start, end)))
			}
		}
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(&b, "%s %s %s %s (%s:%d:%d)\n", pad, p.gutter.Sprint("="),
				p.note.Sprint("note:"), n.Msg, formatPath(fs, n.Span.File, opts.PathMode), ns.Line, ns.Col)
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(&b, "%s %s %s %s [%s]\n", pad, p.gutter.Sprint("="),
				p.note.Sprint("fix:"), f.Title, f.ID)
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// underline builds the caret line below line for a span starting at start.
// Spans running past the line are cut at its end.
func underline(line string, start, end source.LineCol) string {
	from := min(int(start.Col)-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(int(end.Col)-1, from), len(line))
	}
	var b strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			b.WriteByte('\t') // табы оставляем, терминал выровняет сам
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	b.WriteString(strings.Repeat("^", max(runewidth.StringWidth(line[from:to]), 1)))
	return b.String()
}

func truncate(line string, width uint8) string {
	if width == 0 {
		return line
	}
	return runewidth.Truncate(line, int(width), "…")
}

// Summary prints the closing count line, e.g. "2 errors, 1 warning".
func Summary(w io.Writer, bag *diag.Bag, useColor bool) error {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	p := newPalette(useColor)
	if errs == 0 && warns == 0 {
		_, err := fmt.Fprintln(w, p.bold.Sprint("no problems found"))
		return err
	}
	_, err := fmt.Fprintf(w, "%s, %s\n",
		p.err.Sprint(plural(errs, "error")), p.warn.Sprint(plural(warns, "warning")))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// Short prints one line per diagnostic: "<sev> <CODE> <path>:<line>:<col> <message>".
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, withNotes bool) error {
	out := diag.FormatShortDiagnostics(bag.Items(), fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
