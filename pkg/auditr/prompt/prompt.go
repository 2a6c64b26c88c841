// Package prompt asks yes/no questions. On a terminal it runs a small
// bubbletea program reading single keys; otherwise it reads one line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const hint = "[N/y]"

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Confirm asks question on out and reads the answer from in. Anything but
// an explicit yes is a no, including end of input.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if interactive(in, out) {
		return confirmTUI(in, out, question)
	}
	return confirmLine(in, out, question)
}

func interactive(in io.Reader, out io.Writer) bool {
	fin, ok := in.(*os.File)
	if !ok || !isatty.IsTerminal(fin.Fd()) {
		return false
	}
	fout, ok := out.(*os.File)
	return ok && isatty.IsTerminal(fout.Fd())
}

func confirmLine(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s ", question, hint)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(out)
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func confirmTUI(in io.Reader, out io.Writer, question string) (bool, error) {
	final, err := tea.NewProgram(newModel(question), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(model)
	if !ok {
		return false, nil
	}
	return m.answer, nil
}

type model struct {
	question string
	answer   bool
	done     bool
}

func newModel(question string) model {
	return model{question: question}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c", "ctrl+d":
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	line := questionStyle.Render(m.question) + " " + hintStyle.Render(hint) + " "
	if !m.done {
		return line
	}
	if m.answer {
		return line + "y\n"
	}
	return line + "n\n"
}
