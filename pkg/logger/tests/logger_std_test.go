package tests

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/waveroom/admission-service/pkg/logger"
)

func TestInit_DevStd_TextOutput(t *testing.T) {
	cfg := logger.Config{
		Service: "admission-service",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
	}

	out := captureStdOut(func() {
		logger.Init(cfg)
		slog.Info("booted", slog.String("k", "v"))
	})

	if !strings.Contains(out, "msg=booted") {
		t.Fatalf("expected text line with msg=booted, got %s", out)
	}
	if !strings.Contains(out, "service=admission-service") {
		t.Fatalf("expected service attr, got %s", out)
	}
	if !strings.Contains(out, "k=v") {
		t.Fatalf("expected custom field, got %s", out)
	}
}

func TestInit_DebugLowersLevel(t *testing.T) {
	cfg := logger.Config{
		Service: "admission-service",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Debug:   true,
	}

	out := captureStdOut(func() {
		logger.Init(cfg)
		slog.Debug("verbose")
	})

	if !strings.Contains(out, "msg=verbose") {
		t.Fatalf("debug line should pass with Debug=true, got %s", out)
	}
}
