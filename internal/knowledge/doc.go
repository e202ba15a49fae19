// Package knowledge implements the per-project document knowledge base:
// parsing uploads into text, splitting text into overlapping chunks,
// embedding chunks with a Genkit model, and persisting both document
// lifecycle records and chunk vectors in PostgreSQL with pgvector.
//
// The Registry owns document records and their status transitions; the
// Store owns chunk rows and similarity search. Both consume narrow
// interfaces over the sqlc-generated queries so they can be tested
// against mocks and composed by the ingestion pipeline.
package knowledge
