package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pfrederiksen/rec-schedule/internal/manifest"
)

const sampleSchedule = `Denver Recreation Centers
Monday, June 1
5:30am-6:30am Lap Swim
NA - No Instructor Lap Pool Aquatics (AQ) 45 Carla Madison
Reserve
9:00am-10:00am
Cancelled
Vinyasa Yoga
Mind Body Studio
Ann B.
Mind Body (MB)
Central Park
Tuesday, June 2
7:00am-8:00am Spin
Cycle Studio Fitness (FIT) 45 Rude
`

type testEnv struct {
	dir        string
	configPath string
	dataDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dataDir:    filepath.Join(dir, "data"),
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with the environment's config and data directory
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("Execute(%q): %v\n%s", args, err, out)
	}
	return out
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q missing substring %q", output, want)
	}
}

func assertNotContains(t *testing.T, output, want string) {
	t.Helper()
	if strings.Contains(output, want) {
		t.Fatalf("output %q unexpectedly contained substring %q", output, want)
	}
}

func TestParseCommand_Text(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)

	out := env.mustRun(t, "parse", input, "--reference-date", "2026-05-15")

	assertContains(t, out, "Monday, June 1, 2026 (2 classes, 1 cancelled)")
	assertContains(t, out, "5:30am-6:30am  Lap Swim @ Carla Madison [AQ] (sign-up)")
	assertContains(t, out, "9:00am-10:00am  CANCELLED Vinyasa Yoga @ Central Park [MB]")
	assertContains(t, out, "Tuesday, June 2, 2026 (1 classes)")
	assertContains(t, out, "Total: 3 classes across 2 days")
}

func TestParseCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)

	out := env.mustRun(t, "--format", "json", "parse", input, "--reference-date", "2026-05-15")

	var result ScheduleOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.DayCount != 2 || result.EventCount != 3 {
		t.Errorf("DayCount = %d, EventCount = %d, want 2 and 3", result.DayCount, result.EventCount)
	}

	lap := result.Days[0].Events[0]
	if lap.ClassName != "Lap Swim" || lap.Instructor != "NA - No Instructor" || lap.Location != "Carla Madison" || lap.Category != "AQ" {
		t.Errorf("first event = %+v", lap)
	}
	if result.Days[0].Date != "2026-06-01" || result.Days[0].DisplayDate != "Monday, June 1, 2026" {
		t.Errorf("first day = %s / %s", result.Days[0].Date, result.Days[0].DisplayDate)
	}
}

func TestParseCommand_Stdin(t *testing.T) {
	env := newTestEnv(t)

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("Friday, June 5, 2026\n6:00pm-7:00pm Zumba\nDance (DA) 60 Glenarm\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "parse", "-"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertContains(t, out.String(), "Friday, June 5, 2026 (1 classes)")
	assertContains(t, out.String(), "Zumba @ Glenarm [DA]")
}

func TestParseCommand_Filters(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "category",
			args:    []string{"--category", "AQ"},
			want:    []string{"Lap Swim", "Filter: Categories: AQ"},
			notWant: []string{"Vinyasa Yoga", "Spin"},
		},
		{
			name:    "hide cancelled",
			args:    []string{"--hide-cancelled"},
			want:    []string{"Lap Swim", "Spin"},
			notWant: []string{"Vinyasa Yoga"},
		},
		{
			name:    "date range",
			args:    []string{"--dates", "2026-06-02"},
			want:    []string{"Spin"},
			notWant: []string{"Lap Swim"},
		},
		{
			name:    "no matches",
			args:    []string{"--location", "Hiawatha"},
			want:    []string{"No classes found."},
			notWant: []string{"Lap Swim"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"parse", input, "--reference-date", "2026-05-15"}, tt.args...)
			out := env.mustRun(t, args...)
			for _, w := range tt.want {
				assertContains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assertNotContains(t, out, nw)
			}
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)
	empty := env.writeFile(t, "empty.txt", "  \n")

	tests := []struct {
		name string
		args []string
	}{
		{"invalid format", []string{"--format", "xml", "parse", input}},
		{"invalid backend", []string{"--backend", "ftp", "parse", input}},
		{"missing file", []string{"parse", filepath.Join(env.dir, "nope.txt")}},
		{"empty input", []string{"parse", empty}},
		{"bad reference date", []string{"parse", input, "--reference-date", "June 1"}},
		{"bad sort", []string{"parse", input, "--sort", "color"}},
		{"bad time filter", []string{"parse", input, "--after", "early"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, tt.args...); err == nil {
				t.Errorf("Execute(%q) should fail", tt.args)
			}
		})
	}
}

func TestParseCommand_Upcoming(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", `Monday, June 1, 2020
5:30am-6:30am Lap Swim
NA - No Instructor Lap Pool Aquatics (AQ) 45 Carla Madison
Friday, January 1, 2100
7:00am-8:00am Spin
Cycle Studio Fitness (FIT) 45 Rude
`)

	out := env.mustRun(t, "parse", input)
	assertContains(t, out, "Lap Swim")

	out = env.mustRun(t, "parse", input, "--upcoming")
	assertContains(t, out, "Spin @ Rude")
	assertContains(t, out, "Upcoming only")
	assertNotContains(t, out, "Lap Swim")
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)
	env.writeFile(t, "config.yaml", "timezone: Mars/Olympus\n")

	_, err := env.run(t, "parse", input)
	if err == nil || !strings.Contains(err.Error(), "Mars/Olympus") {
		t.Fatalf("parse with bad timezone: err = %v, want timezone error", err)
	}

	// The config commands still run so the file can be inspected and replaced
	out := env.mustRun(t, "config", "show")
	assertContains(t, out, "timezone: Mars/Olympus")
	env.mustRun(t, "config", "init", "--force")
	env.mustRun(t, "parse", input)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		wantErr string
	}{
		{"success", nil, ExitSuccess, ""},
		{"changes", &exitError{code: ExitChanges}, ExitChanges, ""},
		{"wrapped changes", fmt.Errorf("scrape: %w", &exitError{code: ExitChanges}), ExitChanges, ""},
		{"failure", errors.New("boom"), ExitError, "Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if stderr.String() != tt.wantErr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestSaveShowManifestICS(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "schedule.txt", sampleSchedule)

	out := env.mustRun(t, "parse", input, "--reference-date", "2026-05-15", "--save")
	assertContains(t, out, "Saved 2 day(s)")
	assertContains(t, out, "3 change(s):")
	assertContains(t, out, "ADDED")

	for _, name := range []string{"denver_2026_06_01.json", "denver_2026_06_02.json", "week_2026_05_31.json", manifest.MasterKey} {
		if _, err := os.Stat(filepath.Join(env.dataDir, name)); err != nil {
			t.Errorf("expected %s in data dir: %v", name, err)
		}
	}

	// Saving the same schedule again changes nothing
	out = env.mustRun(t, "parse", input, "--reference-date", "2026-05-15", "--save")
	assertContains(t, out, "No changes.")

	out = env.mustRun(t, "show", "--sort", "class")
	assertContains(t, out, "Total: 3 classes across 2 days")
	if strings.Index(out, "Lap Swim") > strings.Index(out, "Vinyasa Yoga") {
		t.Errorf("expected classes sorted by name:\n%s", out)
	}

	out = env.mustRun(t, "manifest")
	assertContains(t, out, "May 31 - June 6, 2026")
	assertContains(t, out, "2 days, 3 classes")

	out = env.mustRun(t, "--format", "json", "manifest", "--show")
	var m manifest.MasterManifest
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("invalid manifest JSON: %v", err)
	}
	if len(m.Weeks) != 1 || m.Weeks[0].File != "week_2026_05_31.json" {
		t.Errorf("manifest weeks = %+v", m.Weeks)
	}

	out = env.mustRun(t, "ics", "--hide-cancelled")
	assertContains(t, out, "BEGIN:VCALENDAR")
	assertContains(t, out, "SUMMARY:Lap Swim")
	assertNotContains(t, out, "Vinyasa Yoga")

	icsPath := filepath.Join(env.dir, "classes.ics")
	env.mustRun(t, "ics", "-o", icsPath)
	if _, err := env.run(t, "ics", "-o", env.dir); err == nil {
		t.Error("ics -o onto a directory should fail")
	}
	data, err := os.ReadFile(icsPath)
	if err != nil {
		t.Fatalf("reading ics: %v", err)
	}
	assertContains(t, string(data), "SUMMARY:CANCELLED: Vinyasa Yoga")
}

func TestManifestShow_NothingStored(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "manifest", "--show"); err == nil {
		t.Error("manifest --show with empty store should fail")
	}
}

func TestScrapeCommand_HTTP(t *testing.T) {
	page := `<html><body>
<h2>Monday, June 1, 2026</h2>
<div>5:30am-6:30am Lap Swim</div>
<div>NA - No Instructor Lap Pool Aquatics (AQ) 45 Carla Madison</div>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	env := newTestEnv(t)
	htmlPath := filepath.Join(env.dir, "raw.html")

	out, err := env.run(t, "scrape", "--http", "--url", server.URL, "--save-html", htmlPath, "--exit-code")
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != ExitChanges {
		t.Fatalf("scrape error = %v, want exit status %d", err, ExitChanges)
	}
	assertContains(t, out, "Captured 1 view(s): 1 classes across 1 days")
	assertContains(t, out, "1 change(s):")

	if data, err := os.ReadFile(htmlPath); err != nil || string(data) != page {
		t.Errorf("saved HTML = %q, %v", data, err)
	}

	// Second run finds nothing new
	out = env.mustRun(t, "scrape", "--http", "--url", server.URL, "--exit-code")
	assertContains(t, out, "No changes.")

	out = env.mustRun(t, "scrape", "--http", "--url", server.URL, "--dry-run")
	assertContains(t, out, "Dry run: nothing saved.")
}

func TestScrapeCommand_NotifyCancellation(t *testing.T) {
	var cancelled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := ""
		if cancelled.Load() {
			status = "Cancelled"
		}
		_, _ = w.Write([]byte(`<html><body>
<p>Monday, June 1, 2026</p>
<p>9:00am-10:00am Vinyasa Yoga</p>
<p>` + status + `</p>
<p>Ann Lee Mind Body Studio Mind Body (MB) 60 Central Park</p>
</body></html>`))
	}))
	defer server.Close()

	env := newTestEnv(t)

	// Newly added classes are not announced by default
	out := env.mustRun(t, "scrape", "--http", "--url", server.URL, "--notify", "stdout")
	assertNotContains(t, out, "--- Message")

	cancelled.Store(true)
	out = env.mustRun(t, "scrape", "--http", "--url", server.URL, "--notify", "stdout")
	assertContains(t, out, "--- Message 1/1 ---")
	assertContains(t, out, "Cancelled: Vinyasa Yoga, Mon Jun 1 9:00am @ Central Park")
	assertContains(t, out, "Notified 1 change(s)")
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "init")
	assertContains(t, out, "Wrote default config")

	if _, err := os.Stat(env.configPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := env.run(t, "config", "init"); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}
	env.mustRun(t, "config", "init", "--force")

	out = env.mustRun(t, "config", "show")
	assertContains(t, out, "file_prefix: denver")
	assertContains(t, out, "timezone: America/Denver")
}

func TestWatchCommand(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "watch", "--http", "--cron", "every tuesday"); err == nil {
		t.Error("watch with an invalid cron expression should fail")
	}

	// A cancelled context stops the watcher after the immediate run
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.configPath, "--data-dir", env.dataDir,
		"watch", "--http", "--url", "http://127.0.0.1:1/", "--cron", "@hourly", "--run-now"})

	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("failed scrape should not write a summary, got %q", out.String())
	}
}
