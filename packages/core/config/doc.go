// Package config loads the run configuration from a .dothttp.yaml
// file. Every setting has a default and every setting can be
// overridden by a command line flag, so the file itself is optional.
package config
