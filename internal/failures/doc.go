// Package failures classifies errors into the handful of kinds the CLI cares
// about: configuration problems and external tool failures end the run,
// transient cache and copy failures are retried on the next poll, and
// not-found results are informational.
package failures
