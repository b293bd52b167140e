// ABOUTME: Question language detection used to pick the answer-language instruction
// ABOUTME: The default heuristic recognises Vietnamese; everything else mirrors the question
package llm

import (
	"strings"
	"unicode"
)

// Language selects the language instruction placed in the prompt
type Language string

const (
	// LanguageVietnamese asks for a Vietnamese answer
	LanguageVietnamese Language = "vi"
	// LanguageMirror asks the model to answer in the question's own language
	LanguageMirror Language = "mirror"
)

// LanguageDetector classifies the language of a question
type LanguageDetector interface {
	Detect(text string) Language
}

// vietnameseChars are the Vietnamese-specific letters, lower and upper case
const vietnameseChars = "àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđĐ"

var vietnameseWords = []string{
	"là", "của", "và", "với", "cho", "được", "trong", "về", "này", "đó",
	"như", "theo", "từ", "đến", "có", "không", "một", "các", "đã", "sẽ",
}

// HeuristicDetector flags Vietnamese by diacritic density or common function words
type HeuristicDetector struct{}

func (HeuristicDetector) Detect(text string) Language {
	viCount, letters := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
		if strings.ContainsRune(vietnameseChars, r) {
			viCount++
		}
	}
	if letters > 0 && (float64(viCount)/float64(letters) > 0.05 || viCount > 3) {
		return LanguageVietnamese
	}

	// Substring match, so short words can also hit inside longer ones
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range vietnameseWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	if hits >= 2 {
		return LanguageVietnamese
	}
	return LanguageMirror
}
