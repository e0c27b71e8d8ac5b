// Callisto is a resilience and routing core for LLM provider dispatch.
//
// It protects calls to upstream LLM providers with:
//   - Per-provider circuit breakers with adaptively tuned thresholds
//   - Adaptive per-provider timeout estimation
//   - Health-ranked first-success-wins fallback racing
//   - Kind-aware retry strategies
//   - A durable outcome journal for offline analysis
//
// Usage:
//
//	# Start the admin server with default configuration
//	callisto run
//
//	# Start with custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Start with synthetic demo traffic driving the race engine
//	callisto run --demo
//
//	# Validate configuration without starting
//	callisto run --dry-run
//
//	# Show version information
//	callisto version
//
// For complete documentation, see: https://github.com/mercator-hq/callisto
package main

func main() {
	Execute()
}
