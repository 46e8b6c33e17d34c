package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// defaultLogger uses the slog logr implementation, matching
// cmd/tinkerbell/logger.go: source file and function can be long, so
// source is trimmed to the last few path segments and the function
// dropped entirely for readability.
func defaultLogger(level int) logr.Logger {
	customAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			ss, ok := a.Value.Any().(*slog.Source)
			if !ok || ss == nil {
				return a
			}
			p := strings.Split(ss.File, "/")
			idx := 0
			for i, v := range p {
				if v == "bos-sub000" && i+2 < len(p) {
					idx = i + 2
					break
				}
				if v == "mod" && i+1 < len(p) {
					idx = i + 1
					break
				}
			}
			ss.File = filepath.Join(p[idx:]...)
			ss.File = fmt.Sprintf("%s:%d", ss.File, ss.Line)
			a.Value = slog.StringValue(ss.File)
			a.Key = "caller"
			return a
		}
		if a.Key == slog.LevelKey {
			lvl, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			a.Value = slog.StringValue(strconv.Itoa(int(lvl)))
		}
		return a
	}
	opts := &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.Level(-level),
		ReplaceAttr: customAttr,
	}
	return logr.FromSlogHandler(slog.NewJSONHandler(os.Stdout, opts))
}
