package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	pickPlace "pick_place"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	stateStyles      = map[pickPlace.SlotState]lipgloss.Style{
		pickPlace.SlotIdle:        tableCellStyle.Foreground(lipgloss.Color("241")),
		pickPlace.SlotApproaching: tableCellStyle.Foreground(lipgloss.Color("226")),
		pickPlace.SlotAttached:    tableCellStyle.Foreground(lipgloss.Color("51")),
		pickPlace.SlotDone:        tableCellStyle.Foreground(lipgloss.Color("46")),
	}
)

// renderStatus draws one table row per slot.
func renderStatus(title string, tick int, statuses []pickPlace.SlotStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		cycle := st.CycleID
		if len(cycle) > 8 {
			cycle = cycle[:8]
		}
		rows = append(rows, []string{
			st.Name,
			st.State.String(),
			st.ApproachPhase.String(),
			st.TransportPhase.String(),
			fmt.Sprintf("%d", st.EngageAttempts),
			fmt.Sprintf("%d", st.ReleaseAttempts),
			cycle,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Slot", "State", "Approach", "Transport", "Engages", "Releases", "Cycle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 1 && row >= 0 && row < len(statuses) {
				if style, ok := stateStyles[statuses[row].State]; ok {
					return style
				}
			}
			return tableCellStyle
		})

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  tick %d", title, tick)))
	sb.WriteString("\n")
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}

// renderTotals lists the counter totals in name order.
func renderTotals(totals map[string]interface{}, names []string) string {
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%-48s %v", name, totals[name])))
		sb.WriteString("\n")
	}
	return sb.String()
}
