// Package parser turns .http script files into an AST.
//
// A file is a sequence of request sections separated by "###" lines.
// Each section may declare request variables with "@name = value",
// attach a pre-request handler with "< {% ... %}" and a response
// handler with "> {% ... %}". Targets, header values, bodies and
// variable values may embed {{...}} placeholders, which the parser
// records as inline scripts without evaluating them.
package parser
