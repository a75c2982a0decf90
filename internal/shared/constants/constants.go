package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultRequestTimeout bounds every single request issued by a probe.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultRetries is the number of extra attempts for 502/503/504 responses.
	DefaultRetries = 2
	// DefaultBackoff is the base wait between retry attempts.
	DefaultBackoff = 500 * time.Millisecond
	// DefaultPoolSize caps idle and active connections to the target.
	// It must stay >= the largest burst concurrency.
	DefaultPoolSize = 50
	// DefaultAPIPrefix is appended to the target base URL.
	DefaultAPIPrefix = "/api/v1"
	// MaxResponseBytes caps how much of a response body a probe may inspect.
	MaxResponseBytes = 1 << 20
)

const (
	// EvidenceDisplayLimit truncates evidence in human-readable reports.
	EvidenceDisplayLimit = 200
	// DetailsDisplayLimit truncates result details in report tables.
	DetailsDisplayLimit = 80
)
