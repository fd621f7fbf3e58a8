package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
)

var StyleSymbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"warning": "!",
	"pending": "◉",
	"arrow":   "→",
	"bullet":  "•",
}

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(text))
}
func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}
func PrintWarning(text string) {
	fmt.Println(warningStyle.Render(text))
}
func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}
func PrintHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}
func FDetail(text string) string {
	return debugStyle.Render(text)
}
