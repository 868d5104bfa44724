package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initialization must be safe
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()
	log.Debug(ctx, "debug message", String("key", "value"))
	log.Info(ctx, "info message", Int("count", 42))
	log.Warn(ctx, "warn message", Float64("ratio", 0.5))
	log.Error(ctx, "error message", Bool("flag", true))

	named := log.Named("component")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(ctx, "named message", Int64("id", 7))
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO  "} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", level, err)
		}
	}

	if err := SetLevelString("chatty"); err == nil {
		t.Error("expected an error for an unknown level")
	}

	// Restore the default for other tests
	SetLevel(slog.LevelInfo)
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("s", "v"), "s"},
		{Int("i", 1), "i"},
		{Int64("i64", 2), "i64"},
		{Float64("f", 3.5), "f"},
		{Bool("b", true), "b"},
		{Any("a", struct{}{}), "a"},
	}
	for _, tc := range cases {
		if tc.field.Key != tc.key {
			t.Errorf("field key = %q, want %q", tc.field.Key, tc.key)
		}
	}
}
