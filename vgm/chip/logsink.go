package chip

import (
	"context"
	"log/slog"
)

// LogSink is a silent chip that logs every register write. Handy for
// checking what a file sends to a chip no synthesizer exists for.
type LogSink struct {
	Null

	family Family
	id     int
	logger *slog.Logger
	level  slog.Level
	now    int
	writes int

	// settings
	skipRepeats bool
	last        [3]uint8
	hasLast     bool
}

type LogSinkOption func(*LogSink)

// WithLogger sends the log lines to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// WithLevel logs writes at level instead of Debug.
func WithLevel(level slog.Level) LogSinkOption {
	return func(s *LogSink) { s.level = level }
}

// WithSkipRepeats drops a write identical to the previous one.
func WithSkipRepeats() LogSinkOption { return func(s *LogSink) { s.skipRepeats = true } }

// NewLogSink creates a logging chip for instance id of family f.
func NewLogSink(f Family, id int, opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		family: f,
		id:     id,
		logger: slog.Default(),
		level:  slog.LevelDebug,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// LogSinkFactory returns a Factory building LogSinks with the given options.
func LogSinkFactory(opts ...LogSinkOption) Factory {
	return func(f Family, id int) Chip {
		return NewLogSink(f, id, opts...)
	}
}

func (s *LogSink) Reset() {
	s.Null.Reset()
	s.now = 0
	s.writes = 0
	s.hasLast = false
}

func (s *LogSink) RunUntil(t int) int {
	s.now = t
	return s.Null.RunUntil(t)
}

func (s *LogSink) Write(port, reg, data uint8) {
	w := [3]uint8{port, reg, data}
	if s.skipRepeats && s.hasLast && w == s.last {
		return
	}
	s.last, s.hasLast = w, true
	s.writes++

	s.logger.Log(context.Background(), s.level, "chip write",
		"chip", s.family.String(),
		"id", s.id,
		"time", s.now,
		"port", port,
		"reg", reg,
		"data", data,
	)
}

// Writes returns the number of writes logged since Reset.
func (s *LogSink) Writes() int {
	return s.writes
}

var _ Chip = (*LogSink)(nil)
