// Package server exposes a Service over HTTP.
//
// Routes:
//
//	POST /api/chat                  {"question": "..."} -> {"success": true, "answer": "..."}
//	GET  /api/health                knowledge base size and degraded flag
//	GET  /api/unanswered            merges pending overflow, then lists the question log
//	POST /api/unanswered/answered   {"question": "...", "note": "..."} marks a logged question answered
//	GET  /metrics                   Prometheus exposition, when a metrics handler is configured
package server
