// Package panel provides the data model for the panel composition engine.
//
// # Reading Guide
//
// Start with these files to understand the model:
//   - primer.go: Primer and PrimerPair values and their comparable keys
//   - design.go: Design (a named primer-pair set) and its cached derived sets
//   - policy.go: manufacturing constants (precision, spike-in size, pool tiers, fill tables)
//
// # Architecture
//
// The panel package defines value types and the error taxonomy; the algorithms
// live in sub-packages:
//   - panel/graph/: compatibility graph and the clique decomposition solver
//   - panel/spikein/: first-fit-decreasing packing of uncovered primer pairs
//   - panel/apportion/: largest remainder rounding of channel volumes
//   - panel/compose/: orchestration of the above into per-channel raw material lists
//   - panel/trace/: decision trace recording
//   - panel/manifest/: YAML records for designs, catalog parts and requests
//
// All volume and boost level arithmetic uses shopspring/decimal. Binary floating
// point never touches a volume.
package panel
