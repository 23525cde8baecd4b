package embedding

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// WordVectors is an Embedder backed by a pretrained word-vector table in the
// word2vec/GloVe text format: one token per line followed by its components,
// optionally preceded by a "<count> <dim>" header line. A text embeds to the
// mean of its known token vectors.
type WordVectors struct {
	vectors map[string][]float64
	dim     int
}

// LoadWordVectors reads the vector table at path. This is the one-time
// process-wide model initialization; callers treat failure as fatal.
func LoadWordVectors(path string) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "fail to open word vector file")
	}
	defer f.Close()

	w := &WordVectors{vectors: make(map[string][]float64)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		line++
		// Only the first line can be the optional "<count> <dim>" header.
		// It must be all-integer, so 1-dimensional vector lines ("token
		// 0.5") are not mistaken for it.
		if line == 1 && isHeaderLine(fields) {
			continue
		}
		if len(fields) < 2 {
			continue
		}
		token, comps := fields[0], fields[1:]
		if w.dim == 0 {
			w.dim = len(comps)
		} else if len(comps) != w.dim {
			return nil, errors.Errorf(
				"inconsistent vector dimension for token %q: got %d, want %d",
				token, len(comps), w.dim)
		}
		vec := make([]float64, w.dim)
		for i, comp := range comps {
			v, err := strconv.ParseFloat(comp, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed component for token %q", token)
			}
			vec[i] = v
		}
		w.vectors[token] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fail to read word vector file")
	}
	if len(w.vectors) == 0 {
		return nil, errors.Errorf("word vector file %s contains no vectors", path)
	}
	return w, nil
}

func isHeaderLine(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	for _, field := range fields {
		if _, err := strconv.Atoi(field); err != nil {
			return false
		}
	}
	return true
}

// Embed averages the vectors of known tokens. Text with no known token
// embeds to the zero vector.
func (w *WordVectors) Embed(text string) ([]float64, error) {
	sum := make([]float64, w.dim)
	known := 0
	for _, token := range Tokenize(text) {
		vec, ok := w.vectors[token]
		if !ok {
			continue
		}
		floats.Add(sum, vec)
		known++
	}
	if known > 0 {
		floats.Scale(1/float64(known), sum)
	}
	return sum, nil
}

func (w *WordVectors) Dimension() int {
	return w.dim
}

// Tokenize lowercases text and splits it on any non-letter, non-digit rune.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
