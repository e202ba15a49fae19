package knowledge

import "errors"

var (
	// ErrParse indicates the uploaded bytes could not be decoded as a
	// supported document format.
	ErrParse = errors.New("knowledge: parse failed")

	// ErrNoContent indicates the document parsed cleanly but contained no
	// usable text.
	ErrNoContent = errors.New("knowledge: document has no text content")

	// ErrEmbedding indicates the embedding provider failed or returned a
	// malformed response.
	ErrEmbedding = errors.New("knowledge: embedding failed")

	// ErrStore indicates a database operation failed.
	ErrStore = errors.New("knowledge: store operation failed")

	// ErrNotFound indicates the document does not exist within the project.
	ErrNotFound = errors.New("knowledge: document not found")

	// ErrAlreadyProcessing indicates a concurrent ingestion run holds the
	// document; re-ingestion is refused until it settles.
	ErrAlreadyProcessing = errors.New("knowledge: document is already processing")
)
