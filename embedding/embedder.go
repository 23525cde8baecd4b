package embedding

// Embedder maps raw text to a fixed-length numeric vector. Implementations
// must be pure: the same text always embeds to the same vector, with no side
// effects, so that stored embeddings stay comparable across process restarts.
type Embedder interface {
	// Embed returns the vector for the given text.
	Embed(text string) ([]float64, error)

	// Dimension returns the length of vectors produced by Embed.
	Dimension() int
}
