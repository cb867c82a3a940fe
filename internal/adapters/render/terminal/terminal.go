package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/okian/smaile/internal/app"
	"github.com/okian/smaile/internal/domain/expression"
	"github.com/okian/smaile/internal/domain/stabilizer"
)

const (
	clearScreen     = "\033[H\033[2J"
	defaultBarWidth = 20
	noFaceText      = "No face detected"
	noStrongText    = "No strong expression"
)

// Renderer prints frames to a writer. It keeps the shown slots so a values
// update only changes numbers, never icons or order.
type Renderer struct {
	mu       sync.Mutex
	w        io.Writer
	redraw   bool
	barWidth int

	shown []stabilizer.Display
	err   error
}

var (
	_ app.Renderer      = (*Renderer)(nil)
	_ app.StatsRenderer = (*Renderer)(nil)
)

// New creates a renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, barWidth: defaultBarWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Err returns the first write error, if any.
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Shown returns a copy of the slots currently on screen.
func (r *Renderer) Shown() []stabilizer.Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stabilizer.Display(nil), r.shown...)
}

func (r *Renderer) OnNoFace() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = nil
	r.print(expression.NoFaceIcon + " " + noFaceText + "\n")
}

func (r *Renderer) OnNoStrongExpression() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = nil
	r.print(expression.NoStrongExpressionIcon + " " + noStrongText + "\n")
}

func (r *Renderer) OnFullUpdate(items []stabilizer.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown[:0], items...)
	r.print(line(r.shown) + "\n")
}

// OnValuesUpdate patches confidences by slot. Items for slots not on screen
// are ignored.
func (r *Renderer) OnValuesUpdate(items []stabilizer.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		if it.Slot < 0 || it.Slot >= len(r.shown) || r.shown[it.Slot].Category != it.Category {
			continue
		}
		r.shown[it.Slot].Confidence = it.Confidence
	}
	r.print(line(r.shown) + "\n")
}

func (r *Renderer) OnAllExpressions(items []stabilizer.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = nil
	r.print(r.table(items) + "\n")
}

// OnStats prints the stats overlay line.
func (r *Renderer) OnStats(s app.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, "FPS: %d | Detection: %.1fms\n", s.FPS, s.LastDetectionMS)
}

func (r *Renderer) print(s string) {
	if r.err != nil {
		return
	}
	if r.redraw {
		s = clearScreen + s
	}
	_, r.err = io.WriteString(r.w, s)
}

func line(items []stabilizer.Display) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s %s %s", it.Icon, it.Category, it.Percent())
	}
	return strings.Join(parts, " | ")
}

func (r *Renderer) table(items []stabilizer.Display) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"", "Expression", "Confidence"}
	if r.barWidth > 0 {
		header = append(header, "")
	}
	t.AppendHeader(header)

	for _, it := range items {
		row := table.Row{it.Icon, it.Category.String(), it.Percent()}
		if r.barWidth > 0 {
			row = append(row, bar(it.Confidence, r.barWidth))
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	return t.Render()
}

func bar(confidence float64, width int) string {
	n := int(expression.Clamp(confidence)*float64(width) + 0.5)
	return strings.Repeat("█", n) + strings.Repeat("·", width-n)
}
