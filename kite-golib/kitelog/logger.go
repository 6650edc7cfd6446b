package kitelog

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"go.uber.org/zap"
)

var flags = log.LstdFlags | log.Lshortfile | log.Lmicroseconds

// Basic prefixes the log line with the program name
var Basic = New(os.Stderr, "[enzh-datagen] ")

// Discard drops all log lines, useful in tests
var Discard = New(ioutil.Discard, "")

// Interface encapsulates the relevant methods of log.Logger
type Interface interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Logger wraps a log.Logger
type Logger struct {
	Default *log.Logger
}

// New creates a Logger writing to w with the given prefix
func New(w io.Writer, prefix string) *Logger {
	return &Logger{
		Default: log.New(w, prefix, flags),
	}
}

// Printf implements Interface
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Default.Output(2, fmt.Sprintf(format, v...))
}

// Println implements Interface
func (l *Logger) Println(v ...interface{}) {
	l.Default.Output(2, fmt.Sprintln(v...))
}

// zapLogger adapts a zap logger to Interface, emitting one JSON line per call
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap wraps a zap logger so it can be used wherever an Interface is accepted
func NewZap(l *zap.Logger) Interface {
	return zapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// NewProductionZap builds a JSON logger using zap's production config
func NewProductionZap() (Interface, func() error, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	return NewZap(l), l.Sync, nil
}

// Printf implements Interface
func (z zapLogger) Printf(format string, v ...interface{}) {
	z.s.Infof(format, v...)
}

// Println implements Interface
func (z zapLogger) Println(v ...interface{}) {
	z.s.Info(v...)
}
