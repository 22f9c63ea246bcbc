package types

import "errors"

// Config holds the parameters the catalogue and its snapshot store are
// built from.
type Config struct {
	DataDir        string  `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SnapshotFormat string  `json:"snapshot_format" yaml:"snapshot_format" mapstructure:"snapshot_format"`
	Buckets        int     `json:"buckets" yaml:"buckets" mapstructure:"buckets"`
	MaxLoadFactor  float64 `json:"max_load_factor" yaml:"max_load_factor" mapstructure:"max_load_factor"`
	TitlePolicy    string  `json:"title_policy" yaml:"title_policy" mapstructure:"title_policy"`
	LogLevel       string  `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// RedisAddr, when set, moves the HTTP activity log into Redis.
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	ActivityLimit int    `json:"activity_limit" yaml:"activity_limit" mapstructure:"activity_limit"`
}

// Snapshot formats.
const (
	SnapshotCSV    = "csv"
	SnapshotJSONL  = "jsonl"
	SnapshotSQLite = "sqlite"
)

// Title policies decide what AddBook does when a new book's normalized
// title is already indexed for another ISBN.
const (
	TitlePolicyOverwrite = "overwrite"
	TitlePolicyReject    = "reject"
)

// Defaults applied by DefaultConfig and by the CLI config loader.
const (
	DefaultBuckets       = 100
	DefaultMaxLoadFactor = 0.75
	DefaultLogLevel      = "warn"
	DefaultActivityLimit = 10
)

// Config validation errors.
var (
	ErrDataDirEmpty          = errors.New("data directory must not be empty")
	ErrSnapshotFormatUnknown = errors.New("unknown snapshot format")
	ErrTitlePolicyUnknown    = errors.New("unknown title policy")
	ErrBucketCountInvalid    = errors.New("bucket count must be positive")
	ErrLoadFactorInvalid     = errors.New("max load factor must not be negative")
	ErrActivityLimitInvalid  = errors.New("activity limit must be positive")
)

// Snapshot errors.
var (
	ErrMalformedRow = errors.New("malformed snapshot row")
)

var knownSnapshotFormats = map[string]bool{
	SnapshotCSV:    true,
	SnapshotJSONL:  true,
	SnapshotSQLite: true,
}

var knownTitlePolicies = map[string]bool{
	TitlePolicyOverwrite: true,
	TitlePolicyReject:    true,
}

// DefaultConfig returns a Config rooted at dataDir with every other field
// at its default.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:        dataDir,
		SnapshotFormat: SnapshotCSV,
		Buckets:        DefaultBuckets,
		MaxLoadFactor:  DefaultMaxLoadFactor,
		TitlePolicy:    TitlePolicyOverwrite,
		LogLevel:       DefaultLogLevel,
		ActivityLimit:  DefaultActivityLimit,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if !knownSnapshotFormats[c.SnapshotFormat] {
		return ErrSnapshotFormatUnknown
	}
	if !knownTitlePolicies[c.TitlePolicy] {
		return ErrTitlePolicyUnknown
	}
	if c.Buckets <= 0 {
		return ErrBucketCountInvalid
	}
	if c.MaxLoadFactor < 0 {
		return ErrLoadFactorInvalid
	}
	if c.ActivityLimit <= 0 {
		return ErrActivityLimitInvalid
	}
	return nil
}
