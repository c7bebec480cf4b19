// Package output renders executed requests, responses and test
// reports. The standard formatter is driven by printf-like format
// strings (%R first line, %H headers, %B body, %T tests, %N name);
// the CI formatter prints one summary table at the end of the run.
package output
