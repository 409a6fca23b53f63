package main

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

type markdownTheme string

const (
	markdownThemeAuto  markdownTheme = "auto"
	markdownThemeDark  markdownTheme = "dark"
	markdownThemeLight markdownTheme = "light"
)

// One shared renderer, rebuilt when the wrap width or theme changes. Stage
// documents are previewed constantly while scrolling, so the renderer must
// not be reconstructed per render.
var (
	markdownMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	markdownStyle    = markdownThemeAuto
	markdownWordWrap = 80
)

// renderMarkdown returns glamour output for a stage document, falling back
// to the raw text when the renderer cannot be built.
func renderMarkdown(content string) string {
	markdownMu.Lock()
	defer markdownMu.Unlock()
	if markdownRenderer == nil {
		options := []glamour.TermRendererOption{
			glamour.WithWordWrap(markdownWordWrap),
		}
		switch markdownStyle {
		case markdownThemeLight:
			options = append(options, glamour.WithStandardStyle("light"))
		case markdownThemeDark:
			options = append(options, glamour.WithStandardStyle("dark"))
		default:
			options = append(options, glamour.WithAutoStyle())
		}
		renderer, err := glamour.NewTermRenderer(options...)
		if err != nil {
			return content
		}
		markdownRenderer = renderer
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func setMarkdownWordWrap(width int) {
	markdownMu.Lock()
	if width < 0 {
		width = 0
	}
	if markdownWordWrap != width {
		markdownWordWrap = width
		markdownRenderer = nil
	}
	markdownMu.Unlock()
}

func setMarkdownTheme(theme markdownTheme) {
	markdownMu.Lock()
	if theme == "" {
		theme = markdownThemeAuto
	}
	if markdownStyle != theme {
		markdownStyle = theme
		markdownRenderer = nil
	}
	markdownMu.Unlock()
}

func markdownThemeFromString(value string) markdownTheme {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dark":
		return markdownThemeDark
	case "light":
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}

func (t markdownTheme) String() string {
	switch t {
	case markdownThemeDark:
		return "dark"
	case markdownThemeLight:
		return "light"
	default:
		return "auto"
	}
}

func nextMarkdownTheme(theme markdownTheme) markdownTheme {
	switch theme {
	case markdownThemeAuto:
		return markdownThemeDark
	case markdownThemeDark:
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}
