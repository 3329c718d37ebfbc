// Package clock lets production code wait on real time while tests inject a
// fake that advances instantly and records every wait.
package clock
