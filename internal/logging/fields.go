package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. snapshot_failed).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID is the standardized structured logging key for one invocation of the tool.
	FieldRunID = "run_id"
	// FieldOutputDir is the per-download destination directory.
	FieldOutputDir = "output_dir"
	// FieldFilename is a segment or manifest filename.
	FieldFilename = "filename"
)
