// Package output renders command results for gridwire-cli.
//
// Results are written as an aligned table (the default), JSON, or YAML.
// Table columns come from the json tags of the result type; fields tagged
// `table:"wide"` only appear with --wide and `table:"-"` never does.
package output
