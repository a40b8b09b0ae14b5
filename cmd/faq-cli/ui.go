package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// InitUI applies the color setting process-wide.
func InitUI(disableColor bool) {
	if disableColor {
		color.NoColor = true
	}
}

// UI writes user-facing output and reads prompts.
type UI struct {
	out      io.Writer
	in       *bufio.Reader
	jsonMode bool

	// Lines are read by one goroutine so a prompt can give up on ctx.
	lines     chan inputLine
	startOnce sync.Once
}

type inputLine struct {
	text string
	err  error
}

// NewUI creates a UI over the given streams.
func NewUI(in io.Reader, out io.Writer, jsonMode bool) *UI {
	return &UI{
		out:      out,
		in:       bufio.NewReader(in),
		jsonMode: jsonMode,
		lines:    make(chan inputLine),
	}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgGreen).Fprintf(ui.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgRed).Fprintf(ui.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgCyan).Fprintf(ui.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	color.New(color.FgMagenta, color.Bold).Fprintf(ui.out, "━━━ %s ━━━\n", strings.ToUpper(title))
	fmt.Fprintln(ui.out)
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Prompt asks for a line of input. io.EOF is returned when input ends and
// ctx.Err() when ctx is done before a line arrives.
func (ui *UI) Prompt(ctx context.Context, message string) (string, error) {
	fmt.Fprintf(ui.out, "%s: ", message)
	ui.startOnce.Do(func() { go ui.readLines() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(ui.out)
		return "", ctx.Err()
	case line, ok := <-ui.lines:
		if !ok {
			return "", io.EOF
		}
		if line.err != nil {
			return "", line.err
		}
		return strings.TrimSpace(line.text), nil
	}
}

func (ui *UI) readLines() {
	defer close(ui.lines)
	for {
		text, err := ui.in.ReadString('\n')
		if text != "" {
			ui.lines <- inputLine{text: text}
		}
		if err != nil {
			if err != io.EOF {
				ui.lines <- inputLine{err: err}
			}
			return
		}
	}
}

// PromptChoice lists choices with 1-based numbers and returns the chosen
// index. An empty answer returns current.
func (ui *UI) PromptChoice(ctx context.Context, message string, choices []string, current int) (int, error) {
	fmt.Fprintf(ui.out, "%s\n", message)
	for i, choice := range choices {
		marker := " "
		if i == current {
			marker = "*"
		}
		fmt.Fprintf(ui.out, " %s %d. %s\n", marker, i+1, choice)
	}

	for {
		input, err := ui.Prompt(ctx, fmt.Sprintf("Enter your choice (1-%d)", len(choices)))
		if err != nil {
			return current, err
		}
		if input == "" {
			return current, nil
		}

		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(choices) {
			ui.Error("Choice must be a number between 1 and %d", len(choices))
			continue
		}
		return choice - 1, nil
	}
}

// Spinner wraps a spinner shown while a slow call runs.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message. It is a no-op when
// stderr is not a terminal or JSON output is on.
func (ui *UI) NewSpinner(message string) *Spinner {
	if ui.jsonMode || !IsTerminal(os.Stderr) {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation.
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// RowProgress renders import progress with mpb.
type RowProgress struct {
	progress *mpb.Progress
	bar      *mpb.Bar
}

// NewRowProgress creates a bar for total rows, or a no-op in JSON mode.
func (ui *UI) NewRowProgress(name string, total int) *RowProgress {
	if ui.jsonMode {
		return &RowProgress{}
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}), " done"),
		),
	)
	return &RowProgress{progress: p, bar: bar}
}

// SetCurrent moves the bar to done rows.
func (r *RowProgress) SetCurrent(done int) {
	if r.bar != nil {
		r.bar.SetCurrent(int64(done))
	}
}

// Close completes the bar and waits for rendering to finish.
func (r *RowProgress) Close() {
	if r.progress == nil {
		return
	}
	if !r.bar.Completed() {
		r.bar.Abort(false)
	}
	if IsTerminal(os.Stderr) {
		r.progress.Wait()
	} else {
		r.progress.Shutdown()
	}
}

// NewQueryProgress creates a progressbar for evaluation runs, or nil in JSON mode.
func (ui *UI) NewQueryProgress(total int, description string) *progressbar.ProgressBar {
	if ui.jsonMode {
		return nil
	}
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("queries"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// IsTerminal checks if f is a terminal.
func IsTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
