package panel

import "fmt"

// GraphIntegrityError reports a structural misuse of the compatibility graph,
// such as inserting the same design instance twice.
type GraphIntegrityError struct {
	DesignID string
	Reason   string
}

func (e *GraphIntegrityError) Error() string {
	return fmt.Sprintf("graph integrity: design %s: %s", e.DesignID, e.Reason)
}

// DataConsistencyError reports input records that contradict each other:
// conflicting boost levels for one primer name, catalog sub-part weights that
// do not add up to the design total, or an apportionment deficit that cannot
// be closed.
type DataConsistencyError struct {
	Source string // design id, file path or component name
	Reason string
}

func (e *DataConsistencyError) Error() string {
	return fmt.Sprintf("data consistency: %s: %s", e.Source, e.Reason)
}

// ConfigurationError reports an unrecognized workflow, molecule type or
// policy value, or a missing override where auto-calculation is impossible.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}
