// Package env loads the variables a run starts from and persists the
// snapshot it ends with.
//
// Variables come from two JSON files: an environment file mapping
// environment names to variable objects, and a snapshot file holding
// values persisted by previous runs through client.global.set. Both
// files are optional. A missing file reads as an empty object.
package env
