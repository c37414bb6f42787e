// Package console renders the session log, the savings counters and the
// engine status for a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hydrochat-core/server/internal/agent/model"
)

const (
	symbolRoute = "🌍"
	symbolWater = "💧"
)

type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	optimizer lipgloss.Style
	system    lipgloss.Style
	route     lipgloss.Style
	waterEst  lipgloss.Style
	water     lipgloss.Style
	muted     lipgloss.Style
	header    lipgloss.Style
	tokens    lipgloss.Style
	total     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		user:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),    // blue
		assistant: r.NewStyle().Foreground(lipgloss.Color("252")),              // light gray
		optimizer: r.NewStyle().Italic(true).Foreground(lipgloss.Color("183")), // purple
		system:    r.NewStyle().Foreground(lipgloss.Color("196")),              // red
		route:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),    // green
		waterEst:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),   // orange
		water:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("245")),
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		tokens:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		total:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	}
}

// Renderer writes records as they are appended. It is a sessionlog.Sink.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles styles
}

func New(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: newStyles(lipgloss.NewRenderer(out))}
}

func (r *Renderer) Publish(ctx context.Context, record model.SessionRecord) error {
	return r.write(r.Record(record))
}

// Savings prints the running totals.
func (r *Renderer) Savings(s model.SavingsState) error {
	return r.write(r.SavingsLine(s))
}

// Status prints the engine status line.
func (r *Renderer) Status(status string) error {
	return r.write(r.styles.muted.Render(strings.ToUpper(status)))
}

// Banner prints the empty-session greeting.
func (r *Renderer) Banner() error {
	return r.write(r.styles.header.Render("🌊 Water Tracker") + "\n" +
		r.styles.muted.Render("We route prompts to cold climates to save water."))
}

func (r *Renderer) write(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, s)
	return err
}

// Record renders one log entry. Assistant entries lead with the routing proof.
func (r *Renderer) Record(rec model.SessionRecord) string {
	st := r.styles
	switch rec.Role() {
	case model.RoleUser:
		return st.user.Render("you › ") + rec.Content()
	case model.RoleOptimizer:
		return st.optimizer.Render(rec.Content())
	case model.RoleSystem:
		return st.system.Render(rec.Content())
	}

	var b strings.Builder
	if info, ok := rec.RoutingInfo(); ok {
		water := st.water
		suffix := ""
		if info.IsEstimate {
			water = st.waterEst
			suffix = " (Est.)"
		}
		b.WriteString(st.route.Render(symbolRoute + " ROUTED TO: " + info.Location))
		b.WriteString("  ")
		b.WriteString(water.Render(symbolWater + " -" + FormatML(info.WaterSavedML) + "mL" + suffix))
		b.WriteString("\n")
		b.WriteString(st.muted.Render("Logic: " + info.Logic))
		b.WriteString("\n")
	}
	b.WriteString(st.assistant.Render(rec.Content()))
	return b.String()
}

func (r *Renderer) SavingsLine(s model.SavingsState) string {
	st := r.styles
	return st.muted.Render("TOKENS SAVED ") + st.tokens.Render(strconv.Itoa(s.TokensSaved)) +
		st.muted.Render("  TOTAL WATER SAVED ") + st.total.Render(fmt.Sprintf("%.1f mL", s.TotalWater))
}

// FormatML prints a water amount without trailing zeros.
func FormatML(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
