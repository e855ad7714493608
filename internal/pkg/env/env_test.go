package env

import (
	"log/slog"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	t.Setenv("KEEPER_TEST_VALUE", "set")
	if got := Get("KEEPER_TEST_VALUE", "default"); got != "set" {
		t.Errorf("Get() = %q, want set", got)
	}
	if got := Get("KEEPER_TEST_MISSING", "default"); got != "default" {
		t.Errorf("Get() = %q, want default", got)
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("KEEPER_TEST_INT", "42")
	if got, err := GetInt("KEEPER_TEST_INT", 1); err != nil || got != 42 {
		t.Errorf("GetInt() = %d, %v; want 42, nil", got, err)
	}
	t.Setenv("KEEPER_TEST_INT", "x")
	if _, err := GetInt("KEEPER_TEST_INT", 1); err == nil {
		t.Errorf("GetInt() expected error for invalid value")
	}
	if got, _ := GetInt("KEEPER_TEST_MISSING", 7); got != 7 {
		t.Errorf("GetInt() default = %d, want 7", got)
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: time.Minute},
		{raw: "5", want: 5 * time.Second},
		{raw: "0.5", want: 500 * time.Millisecond},
		{raw: "2m", want: 2 * time.Minute},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("KEEPER_TEST_DURATION", tt.raw)
			got, err := GetDuration("KEEPER_TEST_DURATION", time.Minute)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetDuration(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetDuration(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("GetDuration(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestGetList(t *testing.T) {
	t.Setenv("KEEPER_TEST_LIST", "open, close,,")
	got := GetList("KEEPER_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "open" || got[1] != "close" {
		t.Errorf("GetList() = %v, want [open close]", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	if got := ParseLogLevel(slog.LevelInfo); got != slog.LevelDebug {
		t.Errorf("ParseLogLevel() = %v, want debug", got)
	}
	t.Setenv("LOG_LEVEL", "warning")
	if got := ParseLogLevel(slog.LevelInfo); got != slog.LevelWarn {
		t.Errorf("ParseLogLevel() = %v, want warn", got)
	}
	t.Setenv("LOG_LEVEL", "info+2")
	if got := ParseLogLevel(slog.LevelError); got != slog.LevelInfo+2 {
		t.Errorf("ParseLogLevel() = %v, want info+2", got)
	}
	t.Setenv("LOG_LEVEL", "verbose")
	if got := ParseLogLevel(slog.LevelWarn); got != slog.LevelWarn {
		t.Errorf("ParseLogLevel() = %v, want fallback warn", got)
	}
}
