// Package diag provides the diagnostic echo responder and the
// read-only admin API.
//
// The echo responder stands in for the catalog application when
// spec.upstream.mode is "echo": it answers every request with a JSON
// document of the variables the catalog would have received, so
// administrators verify rewrite rules end to end without the catalog
// app running.
//
// The admin API serves rule introspection on its own port:
//
//	GET /api/v1/rules           the active table in evaluation order
//	GET /api/v1/resolve?path=/x dry-run a path against the live table
//	GET /api/v1/config          sanitized active configuration summary
//
// Everything here is read-only. Configuration changes go through the
// config file and the reload watcher.
package diag
