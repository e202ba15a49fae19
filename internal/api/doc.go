// Package api provides the JSON/SSE HTTP server for the knowledge base.
//
// # Architecture
//
// The server uses Go 1.22+ routing with a layered middleware stack:
//
//	Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux so they stay fast and dependency-free.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health: liveness, returns {"status":"ok"}
//   - GET /ready: readiness, pings the database pool
//
// Documents:
//   - POST   /api/v1/documents: multipart upload, SSE ingestion progress
//   - GET    /api/v1/documents?project_id=: list project documents, wrapped
//     in a {"documents": [...]} envelope
//   - DELETE /api/v1/documents/{id}?project_id=: delete document and its chunks
//   - POST   /api/v1/documents/{id}/reingest?project_id=: re-run ingestion, SSE progress
//   - GET    /api/v1/stats?project_id=: document and chunk counts
//
// Chat:
//   - POST /api/v1/chat: {project_id, question}, SSE stream of sources then
//     answer chunks
//
// Ingestion and chat responses are server-sent event streams; all other
// responses are JSON.
package api
