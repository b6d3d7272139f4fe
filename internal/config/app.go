package config

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level   string // debug | info | warn | error
	Format  string // json | console
	Service string
}

// LoadLogConfig reads LOG_LEVEL, LOG_FORMAT and LOG_SERVICE.
func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:   envStr("LOG_LEVEL", "info"),
		Format:  envStr("LOG_FORMAT", "json"),
		Service: envStr("LOG_SERVICE", "exam-seating"),
	}
}

// SeatingConfig holds defaults applied when an allocation request leaves a
// selector out, and the optional path of a room template file that replaces
// the built-in templates.
type SeatingConfig struct {
	DefaultPolicy    string
	DefaultDirection string
	TemplatesFile    string
	ConsumerEnabled  bool
	EventLogDir      string
}

// LoadSeatingConfig reads SEATING_* variables.
func LoadSeatingConfig() SeatingConfig {
	return SeatingConfig{
		DefaultPolicy:    envStr("SEATING_DEFAULT_POLICY", "sequential"),
		DefaultDirection: envStr("SEATING_DEFAULT_DIRECTION", "horizontal"),
		TemplatesFile:    envStr("SEATING_TEMPLATES_FILE", ""),
		ConsumerEnabled:  envBool("SEATING_EVENT_CONSUMER", true),
		EventLogDir:      envStr("SEATING_EVENT_LOG_DIR", "logs"),
	}
}
