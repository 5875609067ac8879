package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"seven23/internal/calendar"
	"seven23/internal/cli"
	"seven23/internal/core"
	apphttp "seven23/internal/http"
)

type renderOptions struct {
	out           string
	loading       bool
	width         float64
	monthsPerLine int
	weekday       string
	from, to      string
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the heat-map of the stored transactions as an SVG document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), root, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "", "output file (stdout when empty)")
	f.BoolVar(&opts.loading, "loading", false, "render the loading skeleton instead of the data")
	f.Float64Var(&opts.width, "width", 0, "surface width in pixels (CALENDAR_WIDTH when 0)")
	f.IntVar(&opts.monthsPerLine, "months", -1, "months per line, 0 for responsive (CALENDAR_MONTHS_PER_LINE when unset)")
	f.StringVar(&opts.weekday, "weekday", "", "monday, sunday or weekday (CALENDAR_WEEKDAY when empty)")
	f.StringVar(&opts.from, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&opts.to, "to", "", "last day, YYYY-MM-DD")
	return cmd
}

func runRender(ctx context.Context, root *rootOptions, opts *renderOptions, stdout io.Writer) error {
	app, err := cli.Bootstrap(cli.Options{EnvFiles: root.envFiles, LogOutput: os.Stderr})
	if err != nil {
		return err
	}
	defer app.Close()

	srvOpts, err := serverOptions(app.Config, app.Logger)
	if err != nil {
		return err
	}
	params, err := opts.params(srvOpts.Calendar)
	if err != nil {
		return err
	}

	data, err := apphttp.Render(ctx, app.Series, params, srvOpts)
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	app.Logger.Info("Calendar written", "path", opts.out, "bytes", len(data), "loading", opts.loading)
	return nil
}

// params applies the flags over the configured defaults.
func (o *renderOptions) params(defaults apphttp.CalendarParams) (apphttp.CalendarParams, error) {
	p := defaults
	p.Loading = o.loading
	if o.width != 0 {
		if math.IsNaN(o.width) || o.width < 100 || o.width > 4000 {
			return p, fmt.Errorf("width must be between 100 and 4000, got %v", o.width)
		}
		p.Width = o.width
	}
	if o.monthsPerLine >= 0 {
		if o.monthsPerLine > 12 {
			return p, fmt.Errorf("months must be between 0 and 12, got %d", o.monthsPerLine)
		}
		p.MonthsPerLine = o.monthsPerLine
	}
	if o.weekday != "" {
		conv, err := calendar.ParseWeekConvention(o.weekday)
		if err != nil {
			return p, err
		}
		p.Weekday = conv
	}
	if (o.from == "") != (o.to == "") {
		return p, fmt.Errorf("--from and --to must be given together")
	}
	if o.from != "" {
		from, err := core.ParseDate(o.from)
		if err != nil {
			return p, fmt.Errorf("--from: %w", err)
		}
		to, err := core.ParseDate(o.to)
		if err != nil {
			return p, fmt.Errorf("--to: %w", err)
		}
		if err := core.CheckRange(from, to); err != nil {
			return p, err
		}
		p.From, p.To = from, to
	}
	return p, nil
}
