package mock

import (
	"context"
	"math"
	"math/rand"
)

// DefaultDim is the vector dimension of the deterministic embedder.
const DefaultDim = 8

// MockEmbedder is a deterministic test double for ai.Embedder.
// Vectors are derived from a character-sum seed, so the same text
// always embeds to the same unit vector on any machine. Custom behavior
// can be injected via function fields.
type MockEmbedder struct {
	// Dim is the vector dimension; DefaultDim when zero.
	Dim int

	// EmbedTextFunc is called by EmbedText if set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic
// behavior. Returns the concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: DefaultDim}
}

// EmbedText generates a deterministic unit vector from the text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, m.dim()), nil
}

// EmbedTexts generates deterministic unit vectors, one per input text.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.dim())
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) dim() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return DefaultDim
}

// deterministicVector seeds a PRNG with the sum of the text's code
// points and draws a vector, L2-normalized to unit length.
func deterministicVector(text string, dim int) []float32 {
	var seed int64
	for _, r := range text {
		seed += int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	vector := make([]float32, dim)
	var sumSquares float64
	for i := range vector {
		v := rng.Float64()
		vector[i] = float32(v)
		sumSquares += v * v
	}

	if norm := math.Sqrt(sumSquares); norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector
}
