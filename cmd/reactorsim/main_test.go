package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
)

func newConfigCmd(t *testing.T) *cobra.Command {
	t.Helper()
	preset, configFile, overrides = "", "", nil
	cmd := &cobra.Command{Use: "run"}
	addConfigFlags(cmd)
	return cmd
}

func TestResolveConfigPresetAndFlags(t *testing.T) {
	cmd := newConfigCmd(t)
	if err := cmd.Flags().Set("preset", "step_heat"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("ki", "0"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("set", "reactor.v=12"); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(cmd, config.ModelCSTRPI)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Controller.Ki != 0 {
		t.Errorf("expected ki flag to override preset, got %g", cfg.Controller.Ki)
	}
	if cfg.Controller.Kp != config.DefaultKp {
		t.Errorf("expected untouched kp to keep preset value, got %g", cfg.Controller.Kp)
	}
	if cfg.Reactor.V != 12 {
		t.Errorf("expected reactor.v override, got %g", cfg.Reactor.V)
	}
	if cfg.Disturbance.After != 1e6 {
		t.Errorf("expected preset disturbance, got %+v", cfg.Disturbance)
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	file := config.DefaultConfig()
	file.TEnd = 12
	file.Method = "rk45"
	if err := config.Save(path, file); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigCmd(t)
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("time", "20"); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(cmd, config.ModelTank)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Model != config.ModelTank || cfg.Method != "rk45" || cfg.TEnd != 20 {
		t.Errorf("unexpected config %s/%s/%g", cfg.Model, cfg.Method, cfg.TEnd)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	cmd := newConfigCmd(t)
	if err := cmd.Flags().Set("preset", "nope"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd, config.ModelCSTR); err == nil {
		t.Error("expected unknown preset error")
	}

	cmd = newConfigCmd(t)
	if _, err := resolveConfig(cmd, "batch"); err == nil {
		t.Error("expected unknown model error")
	}

	cmd = newConfigCmd(t)
	if err := cmd.Flags().Set("config", filepath.Join(os.TempDir(), "does-not-exist.yaml")); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd, config.ModelCSTR); err == nil {
		t.Error("expected missing file error")
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   float64
		wantErr bool
	}{
		{"reactor.v=12", "reactor.v", 12, false},
		{"controller.ki = 2e6", "controller.ki", 2e6, false},
		{"reactor.v", "", 0, true},
		{"=3", "", 0, true},
		{"reactor.v=abc", "", 0, true},
	}
	for _, tt := range tests {
		name, value, err := parseAssignment(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAssignment(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (name != tt.name || value != tt.value) {
			t.Errorf("parseAssignment(%q) = %s, %g", tt.in, name, value)
		}
	}
}

func TestParseAxis(t *testing.T) {
	name, values, err := parseAxis("controller.ki=0, 1e6,2e6")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "controller.ki" || len(values) != 3 || values[2] != 2e6 {
		t.Errorf("unexpected axis %s %v", name, values)
	}

	if _, _, err := parseAxis("controller.ki="); err == nil {
		t.Error("expected error for empty axis")
	}
}

func TestStepKind(t *testing.T) {
	for method, want := range map[string]string{
		"bdf":   "adaptive",
		"rk45":  "adaptive",
		"rk4":   "fixed",
		"euler": "fixed",
	} {
		if got := stepKind(method); got != want {
			t.Errorf("stepKind(%q) = %q, want %q", method, got, want)
		}
	}
}
