package constants

import "time"

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits. Retries are off by default; transport faults are surfaced
// to the caller unless retries are explicitly configured.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Identification.
const (
	// DefaultUserAgent is the User-Agent header sent when none is configured.
	DefaultUserAgent = "activerest-go"
)

// Cache sizing and lifetimes.
const (
	// DefaultCacheSize is the default number of entries in the memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default lifetime of a cached response.
	DefaultCacheTTL = 5 * time.Minute
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Parsing.
const (
	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2
)
