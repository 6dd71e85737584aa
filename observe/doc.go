// Package observe provides observability primitives for upstream calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire an Instrumentor's hooks into their
// upstream clients and its Fetch wrapper into route handlers.
package observe
