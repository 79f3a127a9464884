package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	mqcontracts "taskboard/contracts/mq"
	"taskboard/internal/handler"
	"taskboard/internal/httpserver"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

func newTestServer(t *testing.T, seed bool) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryTaskRepository(zap.NewNop())
	svc := service.NewTaskService(repo, nil, zap.NewNop())
	if seed {
		if _, err := svc.SeedIfEmpty(t.Context()); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	srv := httptest.NewServer(httpserver.NewRouter(handler.NewTaskHandler(svc, zap.NewNop()), zap.NewNop(), nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--server", url}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListExcludesNotes(t *testing.T) {
	url := newTestServer(t, true)

	out, err := runCLI(t, url, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Design System Review", "Grocery Shopping", "Gym Workout"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Project Ideas") {
		t.Fatalf("notes should not be listed:\n%s", out)
	}
}

func TestListSearchAndView(t *testing.T) {
	url := newTestServer(t, true)

	out, err := runCLI(t, url, "list", "--view", "completed")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Gym Workout") || strings.Contains(out, "Grocery") {
		t.Fatalf("unexpected completed view:\n%s", out)
	}

	out, _ = runCLI(t, url, "list", "--search", "GROCERY")
	if !strings.Contains(out, "Grocery Shopping") || strings.Contains(out, "Gym") {
		t.Fatalf("unexpected search result:\n%s", out)
	}

	out, _ = runCLI(t, url, "list", "--search", "nothing-matches")
	if !strings.Contains(out, "No tasks found.") {
		t.Fatalf("expected empty message:\n%s", out)
	}

	if _, err := runCLI(t, url, "list", "--view", "archived"); err == nil {
		t.Fatal("expected error for unknown view")
	}
}

func TestNotesAndStats(t *testing.T) {
	url := newTestServer(t, true)

	out, err := runCLI(t, url, "notes")
	if err != nil || !strings.Contains(out, "Project Ideas") || strings.Contains(out, "Gym") {
		t.Fatalf("unexpected notes output (%v):\n%s", err, out)
	}

	out, err = runCLI(t, url, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Total:       3", "Completed:   1", "In progress: 1", "Remaining:   1", "33%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in stats:\n%s", want, out)
		}
	}
}

func TestAddUpdateToggleRemove(t *testing.T) {
	url := newTestServer(t, false)

	out, err := runCLI(t, url, "add", "Write tests", "--priority", "high", "--due", "2030-01-02")
	if err != nil || !strings.Contains(out, "Created 1: Write tests") {
		t.Fatalf("add (%v):\n%s", err, out)
	}

	out, err = runCLI(t, url, "update", "1", "--status", "in-progress", "--description", "table driven")
	if err != nil || !strings.Contains(out, "Updated 1") {
		t.Fatalf("update (%v):\n%s", err, out)
	}

	out, err = runCLI(t, url, "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Write tests", "in-progress", "high", "2030-01-02", "table driven"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in detail:\n%s", want, out)
		}
	}

	out, _ = runCLI(t, url, "toggle", "1")
	if !strings.Contains(out, "-> done") {
		t.Fatalf("expected toggle to done:\n%s", out)
	}
	out, _ = runCLI(t, url, "toggle", "1")
	if !strings.Contains(out, "-> todo") {
		t.Fatalf("expected toggle back to todo:\n%s", out)
	}

	if _, err := runCLI(t, url, "update", "1", "--clear-description"); err != nil {
		t.Fatalf("clear description: %v", err)
	}
	out, _ = runCLI(t, url, "show", "1")
	if strings.Contains(out, "table driven") {
		t.Fatalf("expected description cleared:\n%s", out)
	}

	out, err = runCLI(t, url, "rm", "1")
	if err != nil || !strings.Contains(out, "Deleted 1") {
		t.Fatalf("rm (%v):\n%s", err, out)
	}
	if _, err := runCLI(t, url, "show", "1"); err == nil || !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("expected not found after rm, got %v", err)
	}
}

func TestValidationErrorsSurface(t *testing.T) {
	url := newTestServer(t, false)

	_, err := runCLI(t, url, "add", "x", "--priority", "urgent")
	if err == nil || !strings.Contains(err.Error(), `field "priority"`) {
		t.Fatalf("expected validation error on priority, got %v", err)
	}

	if _, err := runCLI(t, url, "update", "1"); err == nil {
		t.Fatal("expected error when no fields are given")
	}
	if _, err := runCLI(t, url, "show", "abc"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestDescribeEvent(t *testing.T) {
	at := time.Date(2024, 1, 1, 8, 30, 0, 0, time.Local)

	changed := `{"task":{"id":3,"title":"Gym Workout","status":"done"},"occurredAt":"` + at.Format(time.RFC3339) + `"}`
	line, err := describeEvent(mqcontracts.RoutingKeyTaskUpdated, []byte(changed))
	if err != nil || !strings.Contains(line, "#3 Gym Workout [done]") || !strings.HasPrefix(line, "08:30:00") {
		t.Fatalf("unexpected line %q (%v)", line, err)
	}

	line, err = describeEvent(mqcontracts.RoutingKeyTaskDeleted, []byte(`{"taskId":9}`))
	if err != nil || !strings.Contains(line, "#9") {
		t.Fatalf("unexpected line %q (%v)", line, err)
	}

	if _, err := describeEvent(mqcontracts.RoutingKeyTaskCreated, []byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := describeEvent("habit.created", []byte("{}")); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestFormatHelpers(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	past := now.Add(-48 * time.Hour)

	if formatDue(nil, now) != "-" {
		t.Fatal("expected dash for missing due date")
	}
	if got := formatDue(&past, now); !strings.HasSuffix(got, "(overdue)") {
		t.Fatalf("expected overdue marker, got %q", got)
	}

	long := strings.Repeat("a", 80)
	if got := truncateCell(long); len(got) != tableCellMaxWidth || !strings.HasSuffix(got, tableCellEllipsis) {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateCell("line1\nline2"); got != "line1 line2" {
		t.Fatalf("expected newlines flattened, got %q", got)
	}

	table := formatTaskTable([]model.Task{{ID: 12, Title: "A", Status: model.StatusTodo, Priority: model.PriorityLow, Category: "Work"}}, now)
	if !strings.Contains(table, "12") || !strings.Contains(table, "Work") {
		t.Fatalf("unexpected table:\n%s", table)
	}
}
