package lookup

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizerFunc defines a single normalization step.
type NormalizerFunc func(string) string

// Normalizer applies a configurable pipeline of normalization steps to a
// query before it reaches the deinflector.
type Normalizer struct {
	steps []NormalizerFunc
}

// NewNormalizer creates a normalizer with the default pipeline.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		steps: []NormalizerFunc{
			RemoveControlChars,
			FoldWidth,
			CombineSoundMarks,
			NFCCompose,
		},
	}
}

// NewNormalizerWithSteps creates a normalizer with a custom pipeline.
func NewNormalizerWithSteps(steps ...NormalizerFunc) *Normalizer {
	return &Normalizer{steps: steps}
}

// Normalize applies all configured steps in order.
func (n *Normalizer) Normalize(s string) string {
	if n == nil {
		return s
	}
	for _, step := range n.steps {
		s = step(s)
	}
	return s
}

// RemoveControlChars removes Unicode control characters.
func RemoveControlChars(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// FoldWidth maps half-width katakana to full width and full-width ASCII to
// ASCII. ｶﾀｶﾅ → カタカナ, ＡＢＣ → ABC.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// soundMarks maps the spacing (half-width origin) voicing marks to their
// combining forms so NFC can compose them with the preceding kana.
var soundMarks = strings.NewReplacer(
	"\u309B", "\u3099", // ゛
	"\u309C", "\u309A", // ゜
)

// CombineSoundMarks turns spacing voicing marks into combining ones.
func CombineSoundMarks(s string) string {
	return soundMarks.Replace(s)
}

// NFCCompose applies Unicode NFC normalization. カ + U+3099 → ガ.
func NFCCompose(s string) string {
	return norm.NFC.String(s)
}
