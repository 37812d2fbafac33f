package main

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"

	"github.com/san-kum/bucketsim/internal/config"
)

func newLogger(output io.Writer, s config.Settings) *slog.Logger {
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: s.Level()}))
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      s.Level(),
		TimeFormat: "15:04:05.000",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}
