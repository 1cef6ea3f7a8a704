package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/monitor"
)

// ANSI colors, so the output follows the terminal's palette.
const (
	colorOK    lipgloss.Color = "2"
	colorFail  lipgloss.Color = "1"
	colorWarn  lipgloss.Color = "3"
	colorMuted lipgloss.Color = "8"
)

var (
	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderSnapshot renders s for a terminal: the panel screen, then one row
// per alert indicator with the disk it stands for.
func RenderSnapshot(s monitor.Snapshot, disks monitor.DiskTable) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(s.Name))
	if s.Failed {
		b.WriteString(" " + lipgloss.NewStyle().Foreground(colorFail).Render("(disabled)"))
	}
	b.WriteString("\n")
	b.WriteString(screenStyle.Render(s.Display.Upper.String() + "\n" + s.Display.Lower.String()))
	b.WriteString("\n")

	rows := [][]string{
		{alert.Warn.String(), "", s.Alerts.Warn.String()},
		{alert.Fail.String(), "", s.Alerts.Fail.String()},
	}
	for led, cell := range s.Alerts.Disks {
		rows = append(rows, []string{alert.DiskIndicator(led).String(), diskAt(disks, led), cell.String()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("INDICATOR", "DISK", "STATE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return cellStyle.Foreground(cellColor(rows[row][2]))
			}
			return cellStyle
		})
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("fan request: " + s.PWM.String()))
	b.WriteString("\n")
	return b.String()
}

func diskAt(disks monitor.DiskTable, led int) string {
	for _, d := range disks {
		if d.LED() == led {
			return d.Device
		}
	}
	return "-"
}

func cellColor(state string) lipgloss.Color {
	switch state {
	case alert.SetReq.String(), alert.SetAck.String():
		return colorFail
	case alert.ClearReq.String():
		return colorWarn
	default:
		return colorOK
	}
}
