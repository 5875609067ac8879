package main

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"seven23/internal/calendar"
	"seven23/internal/cli"
	"seven23/internal/core"
	"seven23/internal/tui"
)

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the heat-map in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd.Context(), opts)
		},
	}
}

func runBrowse(ctx context.Context, opts *rootOptions) error {
	// Log lines would tear the alternate screen.
	app, err := cli.Bootstrap(cli.Options{EnvFiles: opts.envFiles, LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := cli.SignalContext(ctx, app.Logger)
	defer cancel()

	cur, err := core.LookupCurrency(app.Config.Currency)
	if err != nil {
		return err
	}
	model := tui.New(ctx, app.Series, app.Transactions, tui.Config{
		Theme:         calendar.DarkTheme,
		Color:         app.Config.CalendarColor,
		Quantile:      app.Config.CalendarQuantile,
		MonthsPerLine: app.Config.CalendarMonthsPerLine,
		Weekday:       app.Config.WeekConvention(),
		Currency:      cur,
		Logger:        app.Logger.Logger,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
