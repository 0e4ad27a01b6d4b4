package lookup

import "testing"

func TestNormalizer(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		input    string
		expected string
	}{
		{"ｶﾀｶﾅ", "カタカナ"},
		{"ﾃﾚﾋﾞ", "テレビ"},
		{"ﾊﾟﾝ", "パン"},
		{"ＡＢＣ１２３", "ABC123"},
		{"見た\n", "見た"},
		{"が", "が"},
		{"か゛", "が"},
		{"ひらがな", "ひらがな"},
		{"", ""},
	}

	for _, tt := range tests {
		result := n.Normalize(tt.input)
		if result != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizerWithSteps(t *testing.T) {
	n := NewNormalizerWithSteps(FoldWidth)
	if got := n.Normalize("ｶ\n"); got != "カ\n" {
		t.Errorf("Normalize = %q, want %q", got, "カ\n")
	}

	var none *Normalizer
	if got := none.Normalize("ｶ"); got != "ｶ" {
		t.Errorf("nil Normalize = %q", got)
	}
}
