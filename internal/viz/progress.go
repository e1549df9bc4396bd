package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg reports finished sweep points. Send it with Program.Send from
// the sweep progress callback.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg ends the progress view.
type DoneMsg struct {
	Err error
}

type tickMsg time.Time

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SweepProgress is a bubbletea model showing a sweep as it runs.
type SweepProgress struct {
	title    string
	done     int
	total    int
	frame    int
	start    time.Time
	elapsed  time.Duration
	finished bool
	err      error
	quit     bool
}

func NewSweepProgress(title string, total int) SweepProgress {
	return SweepProgress{title: title, total: total, start: time.Now()}
}

func (m SweepProgress) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SweepProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
	case ProgressMsg:
		if msg.Done > m.done {
			m.done = msg.Done
		}
		m.total = msg.Total
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.start)
		return m, tick()
	}
	return m, nil
}

func (m SweepProgress) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}

	status := spinnerFrames[m.frame%len(spinnerFrames)]
	switch {
	case m.err != nil:
		status = StatusFailed.Render("failed")
	case m.finished:
		status = StatusDone.Render("done")
	}

	fmt.Fprintf(&b, "%s %s %3.0f%%  %d/%d points  %s\n",
		status, ProgressBar(percent, 40), percent*100, m.done, m.total,
		Subtle.Render(m.elapsed.Round(time.Millisecond).String()))
	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", StatusFailed.Render(m.err.Error()))
	}
	if !m.finished {
		b.WriteString("\n" + Subtle.Render("q to cancel") + "\n")
	}
	return b.String()
}

// Canceled reports whether the user quit before the sweep finished.
func (m SweepProgress) Canceled() bool { return m.quit && !m.finished }

func (m SweepProgress) Done() int { return m.done }
