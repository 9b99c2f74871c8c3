package loggers_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/jacentio/canopy/internal/loggers"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := loggers.New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "id", "n1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected info to be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "id=n1") {
		t.Errorf("expected warn record, got %q", out)
	}
}

// --- GORM adapter ---

func TestGormSlogger_Messages(t *testing.T) {
	var buf bytes.Buffer
	l := loggers.NewGormSlogger(loggers.New(&buf, slog.LevelDebug))
	ctx := context.Background()

	if l.LogMode(gormLogger.Silent) != l {
		t.Error("expected LogMode to return the same logger")
	}

	l.Info(ctx, "opened %s", "canopy.db")
	l.Warn(ctx, "retrying %d", 2)
	l.Error(ctx, "failed: %v", errors.New("locked"))

	out := buf.String()
	for _, want := range []string{
		`level=INFO msg="opened canopy.db"`,
		`level=WARN msg="retrying 2"`,
		`level=ERROR msg="failed: locked"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestGormSlogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name  string
		begin time.Time
		err   error
		want  string
	}{
		{name: "success", begin: time.Now(), want: ""},
		{name: "record not found", begin: time.Now(), err: gorm.ErrRecordNotFound, want: ""},
		{name: "error", begin: time.Now(), err: errors.New("disk I/O error"), want: "gorm trace"},
		{name: "slow", begin: time.Now().Add(-time.Second), want: "gorm slow query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := loggers.NewGormSlogger(loggers.New(&buf, slog.LevelDebug))
			l.Trace(context.Background(), tt.begin, sql, tt.err)

			out := buf.String()
			if tt.want == "" {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.want) || !strings.Contains(out, `sql="SELECT 1"`) {
				t.Errorf("expected %q with sql, got %q", tt.want, out)
			}
		})
	}
}
