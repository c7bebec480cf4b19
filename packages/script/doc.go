// Package script hosts the embedded JavaScript engine that powers
// {{...}} placeholder resolution and the pre-request / response
// handler blocks of .http files.
//
// Scripts see a fixed object model: client (log, test, assert and the
// persisted client.global store), request (variables, environment and
// raw vs. substituted views of the outgoing request), response (bound
// before a response handler runs) and the dynamic generators $uuid,
// $timestamp, $isoTimestamp and $random.*.
package script
