// Package cmd implements the dothttp CLI commands using Cobra.
//
// Available commands:
//   - run: Execute .http scripts
//   - validate: Check script syntax without executing
//   - export: Convert scripts to a Postman collection or environment
//   - history: Show previously executed requests
//   - version: Show dothttp version information
//
// The run command supports environment selection, output format
// strings, request throttling, latency statistics and a watch mode
// that re-runs scripts when they change.
package cmd
