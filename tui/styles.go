package main

import "github.com/charmbracelet/lipgloss"

// Synthwave-ish palette shared by every view. Project cards additionally
// carry their own assigned color from the backend.
var palette = struct {
	text      lipgloss.Color
	textMuted lipgloss.Color
	accent    lipgloss.Color
	border    lipgloss.Color
	selection lipgloss.Color
	ok        lipgloss.Color
	warn      lipgloss.Color
	bad       lipgloss.Color
}{
	text:      lipgloss.Color("#f8f8f2"),
	textMuted: lipgloss.Color("#6272a4"),
	accent:    lipgloss.Color("#ff6ac1"),
	border:    lipgloss.Color("#44475a"),
	selection: lipgloss.Color("#44475a"),
	ok:        lipgloss.Color("#50fa7b"),
	warn:      lipgloss.Color("#f1fa8c"),
	bad:       lipgloss.Color("#ff5555"),
}

type styles struct {
	app, topBar                      lipgloss.Style
	columnTitle                      lipgloss.Style
	panel, panelFocused              lipgloss.Style
	tabActive, tabInactive, tabsRow  lipgloss.Style
	statusBar, statusSeg, statusHint lipgloss.Style
	listItem, listSel                lipgloss.Style
	toast, toastError                lipgloss.Style
	formLabel, formHint              lipgloss.Style
	badge                            lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	panelBorder := lipgloss.NormalBorder()
	focusedBorder := lipgloss.DoubleBorder()

	return styles{
		app:          base,
		topBar:       base.Padding(0, 1).Bold(true).Foreground(palette.accent),
		columnTitle:  base.Copy().Bold(true).Padding(0, 1),
		panel:        base.BorderStyle(panelBorder).BorderForeground(palette.border),
		panelFocused: base.BorderStyle(focusedBorder).BorderForeground(palette.accent),
		tabActive:    base.Copy().Bold(true).Padding(0, 1).Foreground(palette.accent),
		tabInactive:  base.Padding(0, 1).Foreground(palette.textMuted),
		tabsRow:      base.Padding(0, 1),
		statusBar:    base.Padding(0, 1),
		statusSeg:    base.Padding(0, 1).MarginRight(1),
		statusHint:   base.Copy().Faint(true),
		listItem:     base.Padding(0, 1),
		listSel:      base.Padding(0, 1).Bold(true).Foreground(palette.accent),
		toast:        base.Padding(0, 1).Foreground(palette.ok),
		toastError:   base.Padding(0, 1).Foreground(palette.bad),
		formLabel:    base.Copy().Bold(true),
		formHint:     base.Copy().Faint(true),
		badge:        base.Copy().Bold(true).Foreground(palette.warn),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
