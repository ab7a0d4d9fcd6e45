package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

var phaseLabels = map[string]string{
	"sounds":    "sounds have been extracted",
	"materials": "materials have been extracted",
	"models":    "models have been extracted",
	"publish":   "additional files have been extracted",
}

// printSummary 输出每个阶段的统计
func printSummary(w io.Writer, summary *Summary) {
	for _, phase := range summary.Phases {
		label, ok := phaseLabels[phase.Phase]
		if !ok {
			label = phase.Phase
		}
		fmt.Fprintf(w, "%s %s %s\n",
			countStyle.Render(fmt.Sprint(phase.Extracted)),
			labelStyle.Render(label),
			dimStyle.Render(fmt.Sprintf("(%d files copied)", phase.Copied)),
		)
	}

	if summary.Textures > 0 {
		fmt.Fprintf(w, "%s %s\n",
			countStyle.Render(fmt.Sprint(summary.Textures)),
			labelStyle.Render("distinct textures referenced"))
	}
	if summary.Packed > 0 {
		fmt.Fprintf(w, "%s %s\n",
			countStyle.Render(fmt.Sprint(summary.Packed)),
			labelStyle.Render("additional files have been packed"))
	}
	if summary.PackError != "" {
		fmt.Fprintln(w, warnStyle.Render("files have not been packed: "+summary.PackError))
	}

	fmt.Fprintln(w, titleStyle.Render("Extraction completed")+" "+dimStyle.Render(summary.OutputDir))
}
