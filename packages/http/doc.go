// Package http sends the resolved requests of a .http script.
//
// It wraps the standard library's http package with configurable
// timeouts, redirect and TLS handling, and a response type shaped for
// the scripting host: a flat lower-cased header map and JSON object
// detection for body promotion.
package http
