package shelfscan

import "context"

// VisionProvider identifies book spines in a base64-encoded image using a
// vision-capable language model.
type VisionProvider interface {
	// Name returns the provider identifier (e.g. "gemini").
	Name() string

	// IdentifyBooks returns the titles readable with full certainty and
	// whether the image shows a bookshelf. Unparsable provider output is
	// reported as ErrMalformed.
	IdentifyBooks(ctx context.Context, imageBase64 string) (BookScan, error)
}

// OCRProvider runs general-purpose text and label detection on an image.
type OCRProvider interface {
	Name() string

	// Annotate returns recognized text and image labels.
	Annotate(ctx context.Context, imageBase64 string) (Annotation, error)
}

// TextProvider generates a short completion for a prompt.
type TextProvider interface {
	Name() string

	// Complete returns the provider's text response for the prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}
