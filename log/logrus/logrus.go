// Package logrus adapts sirupsen/logrus to scorecache.Logger.
package logrus

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ktevet1983-hub/scorecache"
)

var _ scorecache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New builds a logger writing to w. format is "json" or "text".
func New(w io.Writer, level, format string) (LogrusLogger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return LogrusLogger{E: logrus.NewEntry(l).WithField("component", "scorecache")}, nil
}

func (l LogrusLogger) Debug(msg string, f scorecache.Fields) { l.E.WithFields(lf(f)).Debug(msg) }
func (l LogrusLogger) Info(msg string, f scorecache.Fields)  { l.E.WithFields(lf(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f scorecache.Fields)  { l.E.WithFields(lf(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f scorecache.Fields) { l.E.WithFields(lf(f)).Error(msg) }

// errors go under logrus' own error key so formatters render them
func lf(f scorecache.Fields) logrus.Fields {
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			out[logrus.ErrorKey] = err
			continue
		}
		out[k] = v
	}
	return out
}
