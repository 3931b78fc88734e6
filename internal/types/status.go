package types

// Status is the soft-delete lifecycle status of any persisted row,
// orthogonal to the billing statuses defined per entity.
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
	StatusArchived  Status = "archived"
)

func (s Status) String() string {
	return string(s)
}

// LogLevel represents the logging verbosity
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) String() string {
	return string(l)
}

// RunMode is the deployment mode of the process
type RunMode string

const (
	ModeLocal  RunMode = "local"
	ModeServer RunMode = "server"
	ModeWorker RunMode = "worker"
)
