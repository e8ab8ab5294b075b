// Package logs builds the slog logger used by bindctl.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"

	"databind/internal/diagnostic"
)

// Format selects the encoding of the terminal handler.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Level is shared by every handler New creates.
var Level = new(slog.LevelVar)

// Config describes the outputs of a logger.
type Config struct {
	// Writer defaults to os.Stderr.
	Writer io.Writer
	Format Format
	// Journal enables the systemd journal handler when running as a
	// systemd service.
	Journal bool
	// Recorder, if set, also receives every record.
	Recorder *diagnostic.Recorder
}

// New fans records out to a terminal handler, the systemd journal and the
// diagnostic recorder. Under systemd the terminal handler is left out.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	var handlers []slog.Handler

	service := cfg.Journal && isSystemdService()

	var terminal slog.Handler
	if !service {
		terminal = terminalHandler(w, cfg.Format)
		handlers = append(handlers, terminal)
	}

	if service {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			// fall back to the terminal
			terminal = terminalHandler(w, cfg.Format)
			handlers = append(handlers, terminal)

			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.AddAttrs(slog.Any("error", err))
			_ = terminal.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	if cfg.Recorder != nil {
		handlers = append(handlers, cfg.Recorder)
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

func terminalHandler(w io.Writer, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: Level}

	if format == FormatAuto || format == "" {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	if format == FormatText {
		return slog.NewTextHandler(w, opts)
	}

	return slog.NewJSONHandler(w, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseFormat accepts auto, text and json.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, true
	case FormatText, FormatJSON:
		return f, true
	default:
		return "", false
	}
}

func isSystemdService() bool {
	if os.Getenv("INVOCATION_ID") != "" && os.Getenv("JOURNAL_STREAM") != "" {
		return true
	}

	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}

	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}

	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}

func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}

		return '_'
	}, strings.ToUpper(str))
}
