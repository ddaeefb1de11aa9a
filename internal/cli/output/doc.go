// Package output provides output formatting for restkit-server commands.
//
// Values are printed as indented JSON or as YAML. YAML output goes through
// the JSON field names, so struct json tags decide the keys in both formats.
package output
