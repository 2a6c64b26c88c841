package output

import "github.com/charmbracelet/lipgloss"

// Palette (ANSI 256).
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
	ColorMove    = lipgloss.Color("141")
)

var (
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	SummaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
)

// changeStyles colors each change marker and path.
var changeStyles = map[ChangeKind]lipgloss.Style{
	ChangeAdded:   lipgloss.NewStyle().Foreground(ColorSuccess),
	ChangeUpdated: lipgloss.NewStyle().Foreground(ColorWarning),
	ChangeBitrot:  lipgloss.NewStyle().Foreground(ColorDanger).Bold(true),
	ChangeRemoved: lipgloss.NewStyle().Foreground(ColorDanger),
	ChangeMoved:   lipgloss.NewStyle().Foreground(ColorMove),
}

// outcomeStyles colors the verdict in the header.
var outcomeStyles = map[string]lipgloss.Style{
	"ok":      lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
	"changed": lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	"bitrot":  lipgloss.NewStyle().Foreground(ColorDanger).Bold(true),
}
