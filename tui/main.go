package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	theme := flag.String("theme", "", "Markdown rendering theme: auto, light, or dark (overrides ui.yaml)")
	flag.Parse()

	backend := newLocalBackend()
	store := newProjectStore(backend)
	if err := store.LoadSettings(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	hub, err := openHubStore(backend.configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer hub.Close()

	telemetry := newTelemetryLogger(backend.configDir)
	telemetry.Emit("hub_started", "", "")
	store.logf = func(format string, args ...any) {
		telemetry.EmitExtra("store_warning", "", "", map[string]string{
			"message": fmt.Sprintf(format, args...),
		})
	}

	m := initialModel(appDeps{
		store:     store,
		backend:   backend,
		hub:       hub,
		telemetry: telemetry,
		configDir: backend.configDir,
	})
	if *theme != "" {
		setMarkdownTheme(markdownThemeFromString(*theme))
	}

	if _, err := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
