// Package metrics collects Prometheus counters and histograms for an
// ingestion run.
//
// Collectors live on a private registry so that several runs in one process
// (tests, mostly) never collide on the default registry. A batch job has no
// scrape endpoint, so the registry is written to a node_exporter textfile
// when the run ends.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics
