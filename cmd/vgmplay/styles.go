package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	chip  lipgloss.Style
	loop  lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

// ANSI Color reference
// 0 black, 1 red, 2 green, 3 yellow, 4 blue, 5 magenta, 6 cyan, 7 white
func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		label: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(4)).Width(10),
		value: lipgloss.NewStyle().Bold(true),
		chip:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		loop:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		warn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
		dim:   lipgloss.NewStyle().Faint(true),
	}
}

// interactive reports whether f is a terminal, where a self-updating status
// line makes sense.
func interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
