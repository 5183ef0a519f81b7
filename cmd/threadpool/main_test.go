package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_ExecutesEveryItem(t *testing.T) {
	t.Setenv("THREADPOOL_LOGLEVEL", "error")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-items", "6", "-work", "5ms"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v, stderr: %s", err, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d output lines, want 6:\n%s", len(lines), stdout.String())
	}
	for i := 0; i < 6; i++ {
		prefix := "item " + string(rune('0'+i)) + " done on worker "
		if !strings.Contains(stdout.String(), prefix) {
			t.Errorf("output missing %q", prefix)
		}
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadpool.yaml")
	content := "workers: 1\nlog_level: error\nshutdown_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", path, "-items", "3", "-work", "1ms"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.Count(stdout.String(), "done on worker 0"); got != 3 {
		t.Errorf("got %d items on worker 0, want 3:\n%s", got, stdout.String())
	}
}

func TestRun_WithMetrics(t *testing.T) {
	t.Setenv("THREADPOOL_LOGLEVEL", "error")
	t.Setenv("THREADPOOL_METRICS_ENABLED", "true")
	t.Setenv("THREADPOOL_METRICS_ADDR", "127.0.0.1:0")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-items", "2", "-work", "1ms"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.Count(stdout.String(), "done on worker"); got != 2 {
		t.Errorf("got %d finished items, want 2", got)
	}
}

func TestRun_BadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"unknown flag", []string{"-nope"}, nil},
		{"negative items", []string{"-items", "-1"}, nil},
		{"missing config file", []string{"-config", "/does/not/exist.yaml"}, nil},
		{"invalid workers", nil, map[string]string{"THREADPOOL_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var stdout, stderr bytes.Buffer
			if err := run(context.Background(), tt.args, &stdout, &stderr); err == nil {
				t.Error("run() error = nil, want error")
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-h"}, &stdout, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("run(-h) error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr.String(), "-spacing") {
		t.Error("usage output missing -spacing")
	}
}

func TestRun_CancelledBeforeSubmit(t *testing.T) {
	t.Setenv("THREADPOOL_LOGLEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if err := run(ctx, []string{"-items", "4", "-work", "1ms"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want no items run", stdout.String())
	}
}
