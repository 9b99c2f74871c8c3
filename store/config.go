package store

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Config holds configuration for opening the store.
type Config struct {
	// Driver selects the backend: "sqlite", "dynamodb" or "memory".
	// Default: "sqlite"
	Driver string

	// Path is the SQLite database file. ":memory:" keeps it in process.
	// Default: "canopy.db"
	Path string

	// TablePrefix is prepended to every collection's table name.
	TablePrefix string

	// Endpoint overrides the DynamoDB endpoint (e.g., DynamoDB Local
	// at "http://localhost:8000"). Empty uses the AWS default resolver.
	Endpoint string

	// Region is the AWS region for the DynamoDB driver.
	// Default: "us-east-1"
	Region string

	// NumShards is the number of partitions each DynamoDB index value is
	// spread over. Higher values avoid hot partitions for wide sibling groups
	// (many roots) but require parallel queries per lookup.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int
}

// DefaultConfig returns sensible defaults for a single local user.
func DefaultConfig() Config {
	return Config{
		Driver:    DriverSQLite,
		Path:      "canopy.db",
		Region:    "us-east-1",
		NumShards: 1,
	}
}

// Validate fills defaults and clamps values into acceptable bounds.
func (c *Config) Validate() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Path == "" {
		c.Path = "canopy.db"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
}

// TableName returns the prefixed table name for a schema.
func (c Config) TableName(s Schema) string {
	return c.TablePrefix + s.Table
}
