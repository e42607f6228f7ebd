package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/logger"
	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
	"github.com/hpungsan/mealtrace/internal/report"
	"github.com/hpungsan/mealtrace/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	app := &cli.App{
		Name:    "mealtrace",
		Usage:   "Reconstruct food events and meals from Apple Health exports",
		Version: Version,
		Commands: []*cli.Command{
			foodsCmd(cfg),
			mealsCmd(cfg),
			weeklyFoodsCmd(cfg),
			weeklySlotsCmd(cfg),
			snapshotCmd(cfg),
			runsCmd(),
			recordsCmd(cfg),
			serveCmd(cfg),
			mcpCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// reportFlags are shared by the report commands.
func reportFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "First local day to include (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "Last local day to include (YYYY-MM-DD, inclusive)"},
		&cli.StringSliceFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source name tag, repeatable (replaces configured tags)"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format: text|csv|json|markdown|html"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the report to a file instead of stdout"},
	}
	return append(flags, extra...)
}

func gapFlag() cli.Flag {
	return &cli.IntFlag{Name: "gap", Usage: "Largest gap in minutes between food events of one meal (default from config)"}
}

func reportInput(c *cli.Context) ops.ReportInput {
	return ops.ReportInput{
		Path:    c.Args().First(),
		From:    c.String("from"),
		To:      c.String("to"),
		Sources: c.StringSlice("source"),
	}
}

// foodsCmd creates the foods command.
func foodsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "foods",
		Usage:     "List food events (records merged by identity)",
		ArgsUsage: "<export.xml|export.zip>",
		Flags:     reportFlags(),
		Action: func(c *cli.Context) error {
			r, f, err := reportSetup(c, cfg)
			if err != nil {
				return outputError(err)
			}
			out, err := ops.Foods(c.Context, cfg, reportInput(c))
			if err != nil {
				return outputError(err)
			}
			return emit(c, f, func(w io.Writer) error { return r.Foods(w, f, out) })
		},
	}
}

// mealsCmd creates the meals command.
func mealsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "meals",
		Usage:     "Group food events into meals by time gap",
		ArgsUsage: "<export.xml|export.zip>",
		Flags:     reportFlags(gapFlag()),
		Action: func(c *cli.Context) error {
			r, f, err := reportSetup(c, cfg)
			if err != nil {
				return outputError(err)
			}
			out, err := ops.Meals(c.Context, cfg, ops.MealsInput{
				ReportInput: reportInput(c),
				GapMinutes:  c.Int("gap"),
			})
			if err != nil {
				return outputError(err)
			}
			return emit(c, f, func(w io.Writer) error { return r.Meals(w, f, out) })
		},
	}
}

// weeklyFoodsCmd creates the weekly-foods command.
func weeklyFoodsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "weekly-foods",
		Usage:     "Count food events and energy per ISO week and food",
		ArgsUsage: "<export.xml|export.zip>",
		Flags:     reportFlags(),
		Action: func(c *cli.Context) error {
			r, f, err := reportSetup(c, cfg)
			if err != nil {
				return outputError(err)
			}
			out, err := ops.WeeklyFoods(c.Context, cfg, reportInput(c))
			if err != nil {
				return outputError(err)
			}
			return emit(c, f, func(w io.Writer) error { return r.WeeklyFoods(w, f, out) })
		},
	}
}

// weeklySlotsCmd creates the weekly-slots command.
func weeklySlotsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "weekly-slots",
		Usage:     "Count foods per ISO week and meal slot",
		ArgsUsage: "<export.xml|export.zip>",
		Flags:     reportFlags(),
		Action: func(c *cli.Context) error {
			r, f, err := reportSetup(c, cfg)
			if err != nil {
				return outputError(err)
			}
			out, err := ops.WeeklySlots(c.Context, cfg, reportInput(c))
			if err != nil {
				return outputError(err)
			}
			return emit(c, f, func(w io.Writer) error { return r.WeeklySlots(w, f, out) })
		},
	}
}

// snapshotCmd creates the snapshot command.
func snapshotCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "Store food events and meals as a new run in a SQLite file",
		ArgsUsage: "<export.xml|export.zip>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "First local day to include (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "to", Usage: "Last local day to include (YYYY-MM-DD, inclusive)"},
			&cli.StringSliceFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source name tag, repeatable"},
			gapFlag(),
			&cli.StringFlag{Name: "db", Usage: "Snapshot database file (default: ~/.mealtrace/snapshots.db)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Snapshot(c.Context, cfg, ops.SnapshotInput{
				ReportInput: reportInput(c),
				GapMinutes:  c.Int("gap"),
				DBPath:      c.String("db"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// runsCmd creates the runs command.
func runsCmd() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List stored snapshot runs, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Snapshot database file (default: ~/.mealtrace/snapshots.db)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultRunsLimit, Usage: "Maximum runs to list"},
			&cli.StringFlag{Name: "show", Usage: "Print the stored food events of one run"},
			&cli.StringFlag{Name: "delete", Usage: "Delete one run with its events and meals"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("show") && c.IsSet("delete") {
				return outputError(errors.NewInvalidRequest("--show and --delete are mutually exclusive"))
			}
			if c.IsSet("show") {
				output, err := ops.RunEvents(c.Context, ops.RunEventsInput{DBPath: c.String("db"), RunID: c.String("show")})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}
			if c.IsSet("delete") {
				output, err := ops.DeleteRun(c.Context, ops.DeleteRunInput{DBPath: c.String("db"), RunID: c.String("delete")})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}

			output, err := ops.Runs(c.Context, ops.RunsInput{
				DBPath: c.String("db"),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// recordsCmd creates the records command.
func recordsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "records",
		Usage:     "Dump raw export records as CSV (no source or metadata filtering)",
		ArgsUsage: "<export.xml|export.zip>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "type", Aliases: []string{"t"}, Usage: "Record type to include, repeatable (default: all)"},
			&cli.StringSliceFlag{Name: "meta", Usage: "Metadata key to add as a column, repeatable (default: configured food, id, and slot keys)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Stop after this many records (0 = all)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the CSV to a file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			metaKeys := c.StringSlice("meta")
			if len(metaKeys) == 0 {
				metaKeys = []string{cfg.FoodNameKey, cfg.ExternalIDKey, cfg.MealSlotKey}
			}

			return emit(c, report.FormatCSV, func(w io.Writer) error {
				rw := report.NewRecordWriter(w, metaKeys)
				res, err := ops.Records(c.Context, ops.RecordsInput{
					Path:  c.Args().First(),
					Types: c.StringSlice("type"),
					Limit: c.Int("limit"),
				}, rw.Write)
				if err != nil {
					return err
				}
				logger.Named("records").Info().Int("seen", res.Seen).Int("emitted", res.Emitted).Msg("records dumped")
				return rw.Flush()
			})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve the reports of one export in a local web viewer",
		ArgsUsage: "<export.xml|export.zip>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source name tag, repeatable"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8420, Usage: "Port to listen on"},
			&cli.StringFlag{Name: "db", Usage: "Snapshot database listed under /runs (default: ~/.mealtrace/snapshots.db)"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port %d", port)))
			}

			ds, err := ops.OpenDataset(c.Context, cfg, c.Args().First(), c.StringSlice("source"))
			if err != nil {
				return outputError(err)
			}

			srv, err := web.NewServer(ds, cfg, web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    port,
				DBPath:  c.String("db"),
			})
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			if err := runMCP(cfg); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// reportSetup parses the format flag and builds a renderer with configured column names.
func reportSetup(c *cli.Context, cfg *config.Config) (*report.Renderer, report.Format, error) {
	f, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return nil, "", err
	}
	fields, err := nutrition.NewOutputFields(cfg.OutputFields)
	if err != nil {
		return nil, "", errors.NewInvalidRequest(err.Error())
	}
	return report.New(fields), f, nil
}

// emit writes rendered output to --out if set, otherwise to the app writer.
func emit(c *cli.Context, f report.Format, render func(io.Writer) error) error {
	path := strings.TrimSpace(c.String("out"))
	if path == "" {
		if err := render(c.App.Writer); err != nil {
			return outputError(err)
		}
		return nil
	}

	data, err := report.Render(render)
	if err != nil {
		return outputError(err)
	}
	res, err := ops.WriteOutput(c.Context, ops.WriteOutputInput{
		Path:       path,
		Extensions: f.Extensions(),
		Data:       data,
	})
	if err != nil {
		return outputError(err)
	}
	fmt.Fprintf(c.App.ErrWriter, "wrote %d bytes to %s\n", res.Bytes, res.Path)
	return nil
}

// outputJSON outputs JSON to w.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if mErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
