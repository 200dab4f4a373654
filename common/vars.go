package common

var (
	// Version is set at build time with -ldflags "-X github.com/sealtrust/nautilus-oracle/common.Version=..."
	Version = "dev"

	// PackageName is the default log service tag.
	PackageName = "nautilus-oracle"

	// MetricsNamespace prefixes every Prometheus metric. Metric names may not
	// contain dashes.
	MetricsNamespace = "nautilus_oracle"
)
