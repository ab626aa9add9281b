package domain

import (
	"encoding/json"
	"strings"
)

// Preference es el resultado estructurado de la extracción: cada campo vacío
// significa "el modelo no lo mencionó", nunca un error.
type Preference struct {
	Category         string `json:"category"`
	Style            string `json:"style"`
	Color            string `json:"color"`
	Size             string `json:"size"`
	Season           string `json:"season"`
	OriginalSentence string `json:"originalSentence"`
}

// IsEmpty indica si la extracción no aportó ningún campo.
func (p Preference) IsEmpty() bool {
	return p.Category == "" && p.Style == "" && p.Color == "" &&
		p.Size == "" && p.Season == "" && p.OriginalSentence == ""
}

// ParsePreference transforma el texto libre del modelo en una Preference.
// Es tolerante por contrato: la extracción es best-effort y un resumen
// malformado degrada a una Preference vacía, jamás rompe el pipeline.
func ParsePreference(summary string) Preference {
	cleaned := stripCodeFences(summary)
	cleaned = extractJSONObject(cleaned)
	if cleaned == "" {
		return Preference{}
	}

	var p Preference
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Preference{}
	}
	p.Category = strings.TrimSpace(p.Category)
	p.Style = strings.TrimSpace(p.Style)
	p.Color = strings.TrimSpace(p.Color)
	p.Size = strings.TrimSpace(p.Size)
	p.Season = strings.TrimSpace(p.Season)
	p.OriginalSentence = strings.TrimSpace(p.OriginalSentence)
	return p
}

// MergePreferences combina dos extracciones campo a campo: gana el primer
// valor no vacío (a es el resultado prioritario).
func MergePreferences(a, b Preference) Preference {
	return Preference{
		Category:         firstNonEmpty(a.Category, b.Category),
		Style:            firstNonEmpty(a.Style, b.Style),
		Color:            firstNonEmpty(a.Color, b.Color),
		Size:             firstNonEmpty(a.Size, b.Size),
		Season:           firstNonEmpty(a.Season, b.Season),
		OriginalSentence: firstNonEmpty(a.OriginalSentence, b.OriginalSentence),
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// stripCodeFences quita los bloques ```json ... ``` con los que algunos
// modelos envuelven la respuesta.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // descarta la etiqueta de lenguaje
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject recorta el primer objeto {...} del texto; los modelos a
// veces añaden prosa alrededor del JSON.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
