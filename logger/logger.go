package logger

type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

// componentLogger stamps every entry with the emitting component.
type componentLogger struct {
	next      Logger
	component string
}

// WithComponent returns a Logger that adds a "component" field to every entry.
func WithComponent(l Logger, component string) Logger {
	if l == nil {
		return NoopLogger{}
	}
	switch v := l.(type) {
	case NoopLogger:
		return l
	case *ZapLogger:
		return v.Named(component)
	}
	return &componentLogger{next: l, component: component}
}

func (c *componentLogger) with(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["component"] = c.component
	return out
}

func (c *componentLogger) Debug(msg string, fields map[string]any) { c.next.Debug(msg, c.with(fields)) }
func (c *componentLogger) Info(msg string, fields map[string]any)  { c.next.Info(msg, c.with(fields)) }
func (c *componentLogger) Warn(msg string, fields map[string]any)  { c.next.Warn(msg, c.with(fields)) }
func (c *componentLogger) Error(msg string, fields map[string]any) { c.next.Error(msg, c.with(fields)) }
