// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/opskit/internal/mapview"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/urfave/cli/v3"
)

func jsonFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: pretty,
		},
	}
}

// authCommand handles planner authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the planner session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in to the planner and store the token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Planner account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Planner account password",
						Sources: cli.EnvVars("OPSKIT_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored token's account and expiry",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// plannerCommand handles venue hierarchy reads
func plannerCommand(r *Runner) *cli.Command {
	idArg := func(name string) []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: name}}
	}

	return &cli.Command{
		Name:    "planner",
		Aliases: []string{"pl"},
		Usage:   "Browse the venue hierarchy",
		Commands: []*cli.Command{
			{
				Name:   "clients",
				Usage:  "List clients",
				Flags:  jsonFlags(false),
				Action: r.PlannerClients,
			},
			{
				Name:      "sites",
				Usage:     "List a client's sites",
				ArgsUsage: "<client-id>",
				Arguments: idArg("id"),
				Flags:     jsonFlags(false),
				Action:    r.PlannerSites,
			},
			{
				Name:      "buildings",
				Usage:     "List a site's buildings",
				ArgsUsage: "<site-id>",
				Arguments: idArg("id"),
				Flags:     jsonFlags(false),
				Action:    r.PlannerBuildings,
			},
			{
				Name:      "levels",
				Usage:     "List a building's levels",
				ArgsUsage: "<building-id>",
				Arguments: idArg("id"),
				Flags:     jsonFlags(false),
				Action:    r.PlannerLevels,
			},
			{
				Name:      "geojson",
				Usage:     "Fetch a level's map data",
				ArgsUsage: "<level-id>",
				Arguments: idArg("id"),
				Flags: append(jsonFlags(true), &cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Write the GeoJSON to a file instead of stdout",
				}),
				Action: r.PlannerGeoJSON,
			},
			{
				Name:      "beacon-types",
				Usage:     "List a site's beacon hardware types",
				ArgsUsage: "<site-id>",
				Arguments: idArg("id"),
				Flags:     jsonFlags(false),
				Action:    r.PlannerBeaconTypes,
			},
		},
	}
}

// apiCommand handles direct planner API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the planning API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump a client's full hierarchy (sites, buildings, levels)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "client",
						Usage:    "Client ID to dump",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// profileCommand handles the basic recording profiler
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Summarize one or more recording files",
		ArgsUsage: "<recording.json>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write the UUID/Major/Minors table to a CSV file",
			},
			&cli.BoolFlag{
				Name:  "no-geocode",
				Usage: "Skip reverse geocoding of the first GPS fix",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the profile as JSON",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers when profiling several files",
				Value: 4,
			},
		},
		Action: r.Profile,
	}
}

// unheardCommand handles declared-versus-observed comparisons
func unheardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "unheard",
		Usage: "Find declared beacons that no recording heard",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "Compare one level, or every level, of a building",
				ArgsUsage: "<recording.json>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "building",
						Aliases:  []string{"b"},
						Usage:    "Building ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "level",
						Aliases: []string{"l"},
						Usage:   "Level short name, or " + models.AllLevels,
						Value:   models.AllLevels,
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write missing beacons to a CSV file",
					},
					&cli.StringFlag{
						Name:  "markdown",
						Usage: "Write a Markdown report",
					},
					&cli.BoolFlag{
						Name:  "record",
						Usage: "Persist the run to the audit history",
					},
				},
				Action: r.UnheardList,
			},
			{
				Name:      "map",
				Usage:     "Compare one level and plot the missing beacons on its map",
				ArgsUsage: "<recording.json>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "building",
						Aliases:  []string{"b"},
						Usage:    "Building ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "level",
						Aliases:  []string{"l"},
						Usage:    "Level short name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "html",
						Usage: "Map output file",
						Value: "missing_beacons.html",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write missing beacons with coordinates to a CSV file",
					},
					&cli.StringFlag{
						Name:  "geojson",
						Usage: "Write missing beacons as a GeoJSON FeatureCollection",
					},
					&cli.StringFlag{
						Name:  "theme",
						Usage: "Map theme: " + mapview.ThemeClassic + " or " + mapview.ThemeDark,
						Value: mapview.ThemeClassic,
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the map in a browser",
					},
					&cli.BoolFlag{
						Name:  "record",
						Usage: "Persist the run to the audit history",
					},
				},
				Action: r.UnheardMap,
			},
			{
				Name:      "report",
				Usage:     "Render a missing-beacons CSV as a Markdown report",
				ArgsUsage: "<missing.csv>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Report title",
						Value: "Unheard Beacons",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
				},
				Action: r.UnheardReport,
			},
		},
	}
}

// historyCommand handles persisted audit runs
func historyCommand(r *Runner) *cli.Command {
	runArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }

	return &cli.Command{
		Name:  "history",
		Usage: "Browse recorded comparison runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "building",
						Usage: "Only runs for this building",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Only runs of this mode: " + models.ModeList + " or " + models.ModeMap,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show one run by ID or sequence number",
				ArgsUsage: "<id|sequence>",
				Arguments: runArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write the run's missing beacons to a CSV file",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Print a Markdown report instead of a table",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:      "delete",
				Usage:     "Soft-delete a run",
				ArgsUsage: "<id>",
				Arguments: runArg(),
				Action:    r.HistoryDelete,
			},
		},
	}
}

// serveCommand starts the web dashboard
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the dashboard in a browser",
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "Map theme for the unheard map screen",
				Value: mapview.ThemeClassic,
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Only report which migrations are applied",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the configuration file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive drill-down.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Pick a level interactively and list its unheard beacons",
		ArgsUsage: "<recording.json>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/opskit-tui.log",
			},
		},
		Action: r.TUI,
	}
}
