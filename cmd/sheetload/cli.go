package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sheetload/internal/config"
	"github.com/hpungsan/sheetload/internal/db"
	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/mcp"
	"github.com/hpungsan/sheetload/internal/ops"
	"github.com/hpungsan/sheetload/internal/web"
)

// session holds what every command shares. The store is opened on first use
// so help output never touches it.
type session struct {
	cfg *config.Config
	log *logrus.Logger
	db  *sql.DB
}

// open returns the store, opening it from --database or the configured DSN.
func (s *session) open(c *cli.Context) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	conn := s.cfg.Database
	if c.IsSet("database") {
		conn = c.String("database")
	}
	database, err := db.Open(conn)
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	db.ConfigurePool(database, conn, s.cfg)
	s.db = database
	return database, nil
}

func (s *session) close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, log *logrus.Logger) *cli.App {
	s := &session{cfg: cfg, log: log}

	app := &cli.App{
		Name:    "sheetload",
		Usage:   "Load CSV timesheets into a project/task/segment store",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database", Aliases: []string{"d"}, Usage: "Store DSN: path, sqlite://path or :memory:"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error"},
		},
		Before: func(c *cli.Context) error {
			if level := c.String("log-level"); level != "" {
				lvl, err := logrus.ParseLevel(level)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				s.log.SetLevel(lvl)
			}
			return nil
		},
		After: func(_ *cli.Context) error {
			return s.close()
		},
		Commands: []*cli.Command{
			importCmd(s),
			projectsCmd(s),
			projectCmd(s),
			tasksCmd(s),
			segmentsCmd(s),
			runsCmd(s),
			reportCmd(s),
			serveCmd(s),
			webCmd(s),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// importCmd creates the import command.
func importCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Import a timesheet CSV file",
		ArgsUsage:   "[file]",
		Description: "The file must have a .csv extension and be a regular file (not a symlink).\n" +
			"Paths containing \"..\" are rejected; when allowed_paths is configured the\n" +
			"file must sit directly in one of those directories.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Timesheet CSV path"},
			&cli.BoolFlag{Name: "no-headers", Usage: "First row is data; columns are positional"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Projects persisted in parallel (default from config)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{
				Path:      c.String("file"),
				NoHeaders: c.Bool("no-headers"),
				Workers:   c.Int("workers"),
			}
			if c.NArg() > 0 {
				input.Path = c.Args().First()
			}
			if input.Path == "" {
				return outputError(errors.NewInvalidRequest("file is required"))
			}

			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Import(c.Context, database, s.cfg, s.log, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List stored projects by date",
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListProjects(c.Context, database)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// projectCmd creates the project command.
func projectCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "project",
		Usage:     "Show one project with its tasks and segments",
		ArgsUsage: "<project_id>",
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.GetProject(c.Context, database, ops.GetProjectInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// tasksCmd creates the tasks command.
func tasksCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "tasks",
		Usage:     "List the tasks of a project",
		ArgsUsage: "<project_id>",
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListTasks(c.Context, database, ops.ListTasksInput{ProjectID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// segmentsCmd creates the segments command.
func segmentsCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "segments",
		Usage:     "List the time segments of a task",
		ArgsUsage: "<task_id>",
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListSegments(c.Context, database, ops.ListSegmentsInput{TaskID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// runsCmd creates the runs command.
func runsCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded import runs, newest first",
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListRuns(c.Context, database)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command. The document is printed as is;
// --json prints the full result with totals.
func reportCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Summarize stored projects as Markdown or HTML",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Render the report to HTML"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			input := ops.ReportInput{Format: ops.ReportMarkdown}
			if c.Bool("html") {
				input.Format = ops.ReportHTML
			}

			output, err := ops.Report(c.Context, database, input)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(output)
			}
			_, err = fmt.Fprint(os.Stdout, output.Content)
			return err
		},
	}
}

// serveCmd creates the serve command (MCP over stdio).
func serveCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(s.cfg.DisabledTools); len(unknown) > 0 {
				s.log.Warnf("unknown tools in disabled_tools: %v", unknown)
			}

			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			return mcp.Run(database, s.cfg, s.log, Version)
		},
	}
}

// webCmd creates the web command (read-only HTML viewer).
func webCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve a read-only HTML viewer of the store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			database, err := s.open(c)
			if err != nil {
				return outputError(err)
			}

			srv := web.NewServer(database, s.log, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv, s.log)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if lErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
