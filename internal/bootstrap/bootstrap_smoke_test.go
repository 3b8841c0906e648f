package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"printpress-server-go/internal/utils"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-database",
		"eventbus:start-audit",
		"image:init-domain",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesSatisfiable(t *testing.T) {
	// Every DependsOn must reference an earlier step.
	seen := map[string]bool{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				t.Fatalf("step %s depends on %s which does not precede it", step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "second",
			DependsOn: []string{"first"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected unsatisfied dependency error")
	}
}

func TestExecuteInitSteps_StopsOnFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	steps := []initStep{
		{
			ID: "first",
			Execute: func(context.Context, *appState) error {
				ran = append(ran, "first")
				return boom
			},
		},
		{
			ID: "second",
			Execute: func(context.Context, *appState) error {
				ran = append(ran, "second")
				return nil
			},
		},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected step failure to propagate")
	}
	if len(ran) != 1 || ran[0] != "first" {
		t.Fatalf("expected only the failing step to run, got %v", ran)
	}
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logCfg := &utils.LogCfg{
		LogLevel: "info",
		LogDir:   tmp,
		LogFile:  "graph.log",
	}
	logger, err := utils.NewLogger(logCfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logBootstrapGraph(InitGraph(), logger)
	logger.Close()

	data, err := os.ReadFile(filepath.Join(tmp, logCfg.LogFile))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "initialisation overview") {
		t.Fatalf("graph header missing in log output: %s", content)
	}
	for _, title := range []string{
		"Load configuration",
		"Initialise logging provider",
		"Initialise upload guard and resize pipeline",
	} {
		if !strings.Contains(content, title) {
			t.Fatalf("expected graph output to contain %q, got: %s", title, content)
		}
	}
}
