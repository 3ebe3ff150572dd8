package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/config"
	"github.com/harsha08-2k6/studyplan/internal/planner"
	"github.com/harsha08-2k6/studyplan/internal/session"
	"github.com/harsha08-2k6/studyplan/internal/store"
	"github.com/harsha08-2k6/studyplan/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	local, err := store.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening local database: %v\n", err)
		os.Exit(1)
	}
	defer local.Close()

	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout)
	sess := session.New(client, local)
	data := planner.NewStore(client)

	app := tui.NewApp(sess, data, local)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
