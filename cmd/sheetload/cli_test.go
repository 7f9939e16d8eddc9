package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sheetload/internal/config"
	"github.com/hpungsan/sheetload/internal/db"
	"github.com/hpungsan/sheetload/internal/ops"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

const sampleCSV = `Date,Project,Pay Rate,Task ID,Start Time,End Time,Duration
8/10/2024,P,40,T1,9:00 AM,9:30 AM,00:30:00
,,,T1,9:30 AM,10:00 AM,00:30:00
`

// setupTest returns a config pointing at a fresh file store and a CSV path.
func setupTest(t *testing.T, body string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database = filepath.Join(dir, "store", "sheetload.db")

	csvPath := filepath.Join(dir, "sheet.csv")
	if err := os.WriteFile(csvPath, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return cfg, csvPath
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// runCLI runs a fresh app with args and returns what it printed to stdout.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(cfg, quietLogger())

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"sheetload"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestCLIImport(t *testing.T) {
	cfg, csvPath := setupTest(t, sampleCSV)

	out, err := runCLI(t, cfg, "import", csvPath)
	require.NoError(t, err)

	var output ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output), out)
	require.NotEmpty(t, output.RunID)
	require.Equal(t, 2, output.Rows)
	require.Equal(t, 1, output.Inserted)
	require.Equal(t, 2, output.SegmentsInserted)

	t.Run("reimport skips", func(t *testing.T) {
		out, err := runCLI(t, cfg, "import", "--file", csvPath, "--workers", "2")
		require.NoError(t, err)

		var again ops.ImportOutput
		require.NoError(t, json.Unmarshal([]byte(out), &again))
		require.Equal(t, 0, again.Inserted)
		require.Equal(t, 1, again.Skipped)
	})
}

func TestCLIImport_DatabaseFlag(t *testing.T) {
	cfg, csvPath := setupTest(t, sampleCSV)
	other := filepath.Join(t.TempDir(), "other.db")

	_, err := runCLI(t, cfg, "--database", "sqlite://"+other, "import", csvPath)
	require.NoError(t, err)

	database, err := db.Open(other)
	require.NoError(t, err)
	defer database.Close()

	projects, err := db.Projects.RetrieveAll(t.Context(), database)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	_, statErr := os.Stat(cfg.Database)
	require.True(t, os.IsNotExist(statErr), "configured database must be left alone")
}

func TestCLIImport_NoHeaders(t *testing.T) {
	body := strings.SplitN(sampleCSV, "\n", 2)[1]
	cfg, csvPath := setupTest(t, body)

	out, err := runCLI(t, cfg, "import", "--no-headers", csvPath)
	require.NoError(t, err)

	var output ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	require.Equal(t, 1, output.Inserted)
}

func TestCLIQueries(t *testing.T) {
	cfg, csvPath := setupTest(t, sampleCSV)
	_, err := runCLI(t, cfg, "import", csvPath)
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "projects")
	require.NoError(t, err)
	var list ops.ListProjectsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Equal(t, 1, list.Total)
	projectID := list.Items[0].ID.String()
	require.InDelta(t, 40.0, list.Items[0].TotalPay, 1e-9)

	out, err = runCLI(t, cfg, "project", projectID)
	require.NoError(t, err)
	var project timesheet.Project
	require.NoError(t, json.Unmarshal([]byte(out), &project))
	require.Len(t, project.Tasks, 1)
	require.Len(t, project.Tasks[0].Segments, 2)

	out, err = runCLI(t, cfg, "tasks", projectID)
	require.NoError(t, err)
	var tasks ops.ListTasksOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks.Items, 1)
	taskID := tasks.Items[0].ID.String()

	out, err = runCLI(t, cfg, "segments", taskID)
	require.NoError(t, err)
	var segments ops.ListSegmentsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &segments))
	require.Len(t, segments.Items, 2)
	require.True(t, segments.Items[0].Start.Before(segments.Items[1].Start))

	out, err = runCLI(t, cfg, "runs")
	require.NoError(t, err)
	var runs ops.ListRunsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs.Items, 1)
	require.Equal(t, db.RunSucceeded, runs.Items[0].Status)
}

func TestCLIReport(t *testing.T) {
	cfg, csvPath := setupTest(t, sampleCSV)
	_, err := runCLI(t, cfg, "import", csvPath)
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "report")
	require.NoError(t, err)
	require.Contains(t, out, "# Timesheet report")

	out, err = runCLI(t, cfg, "report", "--html")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Timesheet report</h1>")

	out, err = runCLI(t, cfg, "report", "--json")
	require.NoError(t, err)
	var report ops.ReportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, 1, report.Projects)
	require.Equal(t, int64(3600000), report.DurationMS)
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	tests := []struct {
		name string
		body string
		args func(csvPath string) []string
		want string
	}{
		{
			name: "missing file argument",
			body: sampleCSV,
			args: func(string) []string { return []string{"import"} },
			want: "[INVALID_REQUEST]",
		},
		{
			name: "parent traversal",
			body: sampleCSV,
			args: func(p string) []string { return []string{"import", filepath.Dir(p) + "/../sheet.csv"} },
			want: "[INVALID_REQUEST]",
		},
		{
			name: "wrong extension",
			body: sampleCSV,
			args: func(p string) []string { return []string{"import", strings.TrimSuffix(p, ".csv") + ".txt"} },
			want: "[INVALID_REQUEST]",
		},
		{
			name: "bad duration",
			body: strings.Replace(sampleCSV, "00:30:00\n,,", "dog\n,,", 1),
			args: func(p string) []string { return []string{"import", p} },
			want: "[FORMAT_ERROR]",
		},
		{
			name: "inconsistent segment",
			body: strings.Replace(sampleCSV, "9:30 AM,00:30:00", "9:30 AM,00:40:00", 1),
			args: func(p string) []string { return []string{"import", p} },
			want: "[CONSISTENCY_ERROR]",
		},
		{
			name: "invalid project id",
			body: sampleCSV,
			args: func(string) []string { return []string{"project", "not-a-uuid"} },
			want: "[INVALID_REQUEST]",
		},
		{
			name: "unknown project",
			body: sampleCSV,
			args: func(string) []string { return []string{"tasks", "6c4d6f99-b6cb-512a-9f24-302f7b1e13b7"} },
			want: "[NOT_FOUND]",
		},
		{
			name: "bad log level",
			body: sampleCSV,
			args: func(string) []string { return []string{"--log-level", "loud", "projects"} },
			want: "[INVALID_REQUEST]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, csvPath := setupTest(t, tt.body)
			out, err := runCLI(t, cfg, tt.args(csvPath)...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
			require.Empty(t, out)
		})
	}
}

func TestCLIImport_ParseErrorRecordsNothing(t *testing.T) {
	cfg, csvPath := setupTest(t, strings.Replace(sampleCSV, "00:30:00\n,,", "dog\n,,", 1))
	_, err := runCLI(t, cfg, "import", csvPath)
	require.Error(t, err)

	out, err := runCLI(t, cfg, "runs")
	require.NoError(t, err)
	var runs ops.ListRunsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Empty(t, runs.Items)
}

func TestImportUsageStatesPathPolicy(t *testing.T) {
	cmd := importCmd(&session{cfg: config.DefaultConfig(), log: quietLogger()})
	require.Contains(t, cmd.Description, ".csv")
	require.Contains(t, cmd.Description, `".."`)
	require.Contains(t, cmd.Description, "allowed_paths")
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"sheetload"}, true},
		{[]string{"sheetload", "--help"}, true},
		{[]string{"sheetload", "-v"}, true},
		{[]string{"sheetload", "help"}, true},
		{[]string{"sheetload", "import", "x.csv"}, false},
		{[]string{"sheetload", "--database", "x.db", "projects"}, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := isHelpOrVersion(tt.args); got != tt.want {
				t.Errorf("isHelpOrVersion(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestDefaultDatabase(t *testing.T) {
	cfg := config.DefaultConfig()
	defaultDatabase(cfg, "/home/u/.sheetload")
	if cfg.Database != filepath.Join("/home/u/.sheetload", "sheetload.db") {
		t.Errorf("Database = %q", cfg.Database)
	}

	cfg.Database = "sqlite://elsewhere.db"
	defaultDatabase(cfg, "/home/u/.sheetload")
	if cfg.Database != "sqlite://elsewhere.db" {
		t.Errorf("explicit database overwritten: %q", cfg.Database)
	}
}

func TestDefaultDatabase_ExplicitMemoryKept(t *testing.T) {
	t.Setenv("SHEETLOAD_DATABASE", ":memory:")

	cfg, err := config.LoadWithRepo(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	defaultDatabase(cfg, "/home/u/.sheetload")
	require.Equal(t, ":memory:", cfg.Database)
}

func TestDefaultDatabase_ExplicitMemoryFromFile(t *testing.T) {
	t.Setenv("SHEETLOAD_DATABASE", "")
	globalDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"database": "sqlite::memory:"}`), 0600))

	cfg, err := config.LoadWithRepo(globalDir, t.TempDir())
	require.NoError(t, err)

	defaultDatabase(cfg, globalDir)
	require.Equal(t, "sqlite::memory:", cfg.Database)
}
