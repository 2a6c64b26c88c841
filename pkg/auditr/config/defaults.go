package config

import "time"

// AppName names the XDG subdirectories and the environment prefix.
const AppName = "auditr"

// EnvPrefix prefixes environment overrides, e.g. AUDITR_OUTPUT=json.
const EnvPrefix = "AUDITR"

const (
	DefaultOutput           = "plain"
	DefaultProgress         = true
	DefaultHistoryEnabled   = true
	DefaultRetentionDays    = 90
	DefaultWatchDebounce    = 2 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogMaxSize       = "10MB"
	DefaultLogMaxAge        = 30
	DefaultLogMaxBackups    = 5
	DefaultLogDailyRotation = true
)

// DefaultComponents are the per-component log levels written by default.
var DefaultComponents = map[string]string{
	"workflow": "info",
	"scanner":  "info",
	"index":    "info",
	"history":  "warn",
	"watcher":  "warn",
}
