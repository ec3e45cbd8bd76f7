package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a prompt or spinner.
var ErrCancelled = errors.New("cancelled")

// getTTY opens /dev/tty for direct terminal access (bypasses redirections)
func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// ColorEnabled reports whether styled output should be written to w:
// w must be a terminal and NO_COLOR / CLICOLOR=0 must not be set.
func ColorEnabled(w io.Writer) bool {
	return IsTerminal(w) && !termenv.EnvNoColor()
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when w is not a
// terminal or its size is unknown.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Confirm asks a yes/no question on the controlling terminal.
func Confirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Run").
				Negative("Cancel").
				Value(&ok),
		),
	)

	// Use /dev/tty directly to bypass shell redirections
	if tty, err := getTTY(); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, err
	}
	return ok, nil
}

// Ask reads one line of input on the controlling terminal. An empty
// answer is returned as "".
func Ask(title, placeholder string) (string, error) {
	var answer string
	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&answer)
	form := huh.NewForm(huh.NewGroup(input)).WithShowHelp(false)

	if tty, err := getTTY(); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", err
	}
	return answer, nil
}

// spinnerModel is the bubbletea model for the loading spinner
type spinnerModel struct {
	spinner   spinner.Model
	label     string
	cancel    context.CancelFunc
	cancelled bool
	result    *resultMsg
	dimStyle  lipgloss.Style
}

type resultMsg struct {
	text string
	err  error
}

func newSpinnerModel(label string, cancel context.CancelFunc, tty *os.File) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	r := lipgloss.NewRenderer(tty)
	return spinnerModel{
		spinner:  s,
		label:    label,
		cancel:   cancel,
		dimStyle: r.NewStyle().Foreground(GetTheme().Muted),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEscape || msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.cancel()
			return m, tea.Quit
		}
	case resultMsg:
		m.result = &msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.result != nil || m.cancelled {
		return ""
	}
	return m.spinner.View() + " " + m.label + " " + m.dimStyle.Render("(esc to cancel)")
}

// RunWithSpinner shows a spinner on the terminal while fn runs. Without a
// terminal, or when quiet is set, fn runs directly.
func RunWithSpinner(ctx context.Context, label string, quiet bool, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if quiet || !IsTerminal(os.Stderr) {
		return fn(ctx)
	}
	tty, err := getTTY()
	if err != nil {
		return fn(ctx)
	}
	defer tty.Close()

	model := newSpinnerModel(label, cancel, tty)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(tty))

	// Start the request in background and send result to program
	go func() {
		text, err := fn(ctx)
		p.Send(resultMsg{text: text, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	m := finalModel.(spinnerModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	if m.result == nil {
		return "", fmt.Errorf("no result received")
	}
	return m.result.text, m.result.err
}
