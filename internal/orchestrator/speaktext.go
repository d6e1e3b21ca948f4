package orchestrator

import (
	"strings"
)

// maxSpeakRunes caps the length of a derived speak line. Long lines make
// poor speech; the summarizer produces better ones when configured.
const maxSpeakRunes = 240

// SpeakText derives a short spoken line from an agent's accumulated output.
// It takes the last non-empty paragraph, collapses whitespace, and clips
// overly long text. Returns the empty string when the output has no
// speakable content.
func SpeakText(output string) string {
	paragraphs := strings.Split(output, "\n\n")
	for i := len(paragraphs) - 1; i >= 0; i-- {
		p := strings.TrimSpace(paragraphs[i])
		if p == "" {
			continue
		}
		p = strings.Join(strings.Fields(p), " ")
		runes := []rune(p)
		if len(runes) > maxSpeakRunes {
			return string(runes[:maxSpeakRunes-3]) + "..."
		}
		return p
	}
	return ""
}
