package logging

// RetryLogger adapts Logger to the retryablehttp.LeveledLogger interface.
// Info and debug chatter from the retrying client is logged at debug level.
type RetryLogger struct {
	L *Logger
}

func (r RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.L.Error().Fields(keysAndValues).Msg("[retry] " + msg)
}

func (r RetryLogger) Info(msg string, keysAndValues ...interface{}) {
	r.L.Debug().Fields(keysAndValues).Msg("[retry] " + msg)
}

func (r RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.L.Debug().Fields(keysAndValues).Msg("[retry] " + msg)
}

func (r RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.L.Warn().Fields(keysAndValues).Msg("[retry] " + msg)
}
