package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugKeyField names the field a forced debug entry carries the context's debug key in.
const debugKeyField = "debug_log_key"

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

// Sublogger shares the appenders of imp and starts at its current level.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return newImpl(name, imp.level.Get(), imp.inUTC, imp.appenders...)
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

// forced reports whether a debug entry is logged only because ctx is in debug mode, returning the
// context's debug key.
func (imp *impl) forced(ctx context.Context) (string, bool) {
	if imp.enabled(DEBUG) {
		return "", false
	}
	key := GetName(ctx)
	return key, key != ""
}

// entry builds an entry for the exported method that called it. It must be called directly from
// that method so the recorded caller is the method's caller.
func (imp *impl) entry(level Level, msg string) zapcore.Entry {
	const skipToLogCaller = 3
	e := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     callerAt(skipToLogCaller),
	}
	if imp.inUTC {
		e.Time = e.Time.UTC()
	}
	return e
}

func (imp *impl) write(e zapcore.Entry, fields []zapcore.Field) {
	for _, appender := range imp.appenders {
		if err := appender.Write(e, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// fieldsOf pairs up keysAndValues. Keys are printed with %v; a trailing key without a value gets an
// error in its place so the mistake shows in the output.
func fieldsOf(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(imp.entry(DEBUG, fmt.Sprint(args...)), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(imp.entry(DEBUG, fmt.Sprintf(template, args...)), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		fields := fieldsOf(keysAndValues)
		imp.write(imp.entry(DEBUG, msg), fields)
	}
}

func (imp *impl) CDebug(ctx context.Context, args ...interface{}) {
	key, forced := imp.forced(ctx)
	if forced || imp.enabled(DEBUG) {
		fields := debugKey(key, forced, nil)
		imp.write(imp.entry(DEBUG, fmt.Sprint(args...)), fields)
	}
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	key, forced := imp.forced(ctx)
	if forced || imp.enabled(DEBUG) {
		fields := debugKey(key, forced, nil)
		imp.write(imp.entry(DEBUG, fmt.Sprintf(template, args...)), fields)
	}
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	key, forced := imp.forced(ctx)
	if forced || imp.enabled(DEBUG) {
		fields := debugKey(key, forced, fieldsOf(keysAndValues))
		imp.write(imp.entry(DEBUG, msg), fields)
	}
}

func debugKey(key string, forced bool, fields []zapcore.Field) []zapcore.Field {
	if !forced {
		return fields
	}
	return append(fields, zap.String(debugKeyField, key))
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(imp.entry(INFO, fmt.Sprint(args...)), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(imp.entry(INFO, fmt.Sprintf(template, args...)), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		fields := fieldsOf(keysAndValues)
		imp.write(imp.entry(INFO, msg), fields)
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(imp.entry(WARN, fmt.Sprint(args...)), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(imp.entry(WARN, fmt.Sprintf(template, args...)), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		fields := fieldsOf(keysAndValues)
		imp.write(imp.entry(WARN, msg), fields)
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(imp.entry(ERROR, fmt.Sprint(args...)), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(imp.entry(ERROR, fmt.Sprintf(template, args...)), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		fields := fieldsOf(keysAndValues)
		imp.write(imp.entry(ERROR, msg), fields)
	}
}

// callerAt returns the caller skip frames above callerAt's caller, e.g. "logging/impl_test.go:36"
// once formatted.
func callerAt(skip int) zapcore.EntryCaller {
	var c zapcore.EntryCaller
	var ok bool
	c.PC, c.File, c.Line, ok = runtime.Caller(skip)
	if !ok {
		return c
	}
	c.Defined = true
	if fn := runtime.FuncForPC(c.PC); fn != nil {
		c.Function = fn.Name()
	}
	return c
}
