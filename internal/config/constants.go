package config

// Application constants
const (
	// Application Info
	AppName = "mmm-trainer"

	// EnvPrefix namespaces every environment variable, e.g. MMM_TRAINING_SEED.
	EnvPrefix = "MMM"

	// Default locations, relative to the base directory
	DefaultDataDir       = "data"
	DefaultRunsDir       = "data/runs"
	DefaultTransformsDir = "data/transforms"
	DefaultLogsDir       = "logs"

	// Well-known file names
	RunFileName       = "run.json"
	RecordsFileName   = "records.json"
	TransformFileName = "transforms.yaml"
	JobFileName       = "job.yaml"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogOutput = "console"

	// DefaultLogFile is resolved against the logs directory.
	DefaultLogFile = "trainer.log"
)

// Config file search locations, in order.
var configLocations = []string{
	"mmm.yaml",
	"config.yaml",
	"configs/config.yaml",
}
