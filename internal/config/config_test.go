package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"IoMTSpectra/internal/model"
)

const validYAML = `
run:
  duration: "15s"
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
  - name: "Vital Mon"
    class: "telemetry"
    address: "192.168.1.3"
    port: 8002
    task_target: 15
writers:
  - type: "csv"
    enabled: true
    csv:
      path: "out.csv"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	profiles := cfg.Profiles()
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Class != model.ClassCriticalControl {
		t.Errorf("expected critical-control class, got %s", profiles[0].Class)
	}

	d, err := cfg.RunDuration()
	if err != nil {
		t.Fatalf("RunDuration failed: %v", err)
	}
	if d.Seconds() != 15 {
		t.Errorf("expected 15s run duration, got %s", d)
	}
}

func TestLoadConfig_DefaultSafetyRules(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	rules := cfg.SafetyRules()
	conds, ok := rules[model.ClassCriticalControl]
	if !ok {
		t.Fatal("expected default critical-control rule set to be installed")
	}
	if len(conds) != 3 {
		t.Fatalf("expected 3 default conditions, got %d", len(conds))
	}
	if conds[0].Metric != "avg_latency_ms" || conds[0].Threshold != 50 {
		t.Errorf("unexpected first default condition: %+v", conds[0])
	}
	if conds[1].Metric != "completion_time_sec" || conds[1].Threshold != 5 {
		t.Errorf("unexpected second default condition: %+v", conds[1])
	}
}

func TestLoadConfig_RejectsInconsistencies(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty device table",
			yaml:    "devices: []\n",
			wantErr: "device table is empty",
		},
		{
			name: "zero task target",
			yaml: `
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 0
`,
			wantErr: "task_target",
		},
		{
			name: "duplicate device name",
			yaml: `
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
  - name: "Robot Ctrl"
    class: "telemetry"
    address: "192.168.1.2"
    port: 8002
    task_target: 15
`,
			wantErr: "duplicate name",
		},
		{
			name: "duplicate endpoint",
			yaml: `
devices:
  - name: "A"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
  - name: "B"
    class: "telemetry"
    address: "192.168.1.1"
    port: 8000
    task_target: 15
`,
			wantErr: "already mapped",
		},
		{
			name: "unknown rule metric",
			yaml: `
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
safety:
  classes:
    critical-control:
      - name: "bogus"
        metric: "p99_latency"
        operator: "<"
        threshold: 50
`,
			wantErr: "unknown metric",
		},
		{
			name: "unknown rule operator",
			yaml: `
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
safety:
  classes:
    critical-control:
      - name: "latency"
        metric: "avg_latency_ms"
        operator: "!="
        threshold: 50
`,
			wantErr: "unknown operator",
		},
		{
			name: "negative magnitude threshold",
			yaml: `
devices:
  - name: "Robot Ctrl"
    class: "critical-control"
    address: "192.168.1.1"
    port: 8000
    task_target: 100
safety:
  classes:
    critical-control:
      - name: "latency"
        metric: "avg_latency_ms"
        operator: "<"
        threshold: -5
`,
			wantErr: "positive threshold",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, c.yaml))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("expected error containing %q, got %v", c.wantErr, err)
			}
		})
	}
}
