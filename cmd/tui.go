package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/desertthunder/ztx/internal/snapshot"
	"github.com/desertthunder/ztx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive task browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.LogLevel())
	r.SetLogger(fileLogger)

	client, err := r.client()
	if err != nil {
		return err
	}

	engine := snapshot.NewEngine(client, snapshot.Options{
		Logger: shared.WithLogger(fileLogger, "component", "snapshot"),
	})

	model := ui.NewModel(ctx, client, engine)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
