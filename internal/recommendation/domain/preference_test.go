package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePreference_PlainJSON(t *testing.T) {
	p := ParsePreference(`{"category":"outerwear","style":"casual","color":"red","season":"winter"}`)
	assert.Equal(t, "outerwear", p.Category)
	assert.Equal(t, "casual", p.Style)
	assert.Equal(t, "red", p.Color)
	assert.Equal(t, "winter", p.Season)
	assert.Empty(t, p.Size)
}

func TestParsePreference_CodeFences(t *testing.T) {
	summary := "```json\n{\"category\":\"tops\",\"color\":\"blue\"}\n```"
	p := ParsePreference(summary)
	assert.Equal(t, "tops", p.Category)
	assert.Equal(t, "blue", p.Color)
}

func TestParsePreference_ProseAroundJSON(t *testing.T) {
	summary := `Here is the extracted preference: {"color":"black","season":"summer"} Hope it helps!`
	p := ParsePreference(summary)
	assert.Equal(t, "black", p.Color)
	assert.Equal(t, "summer", p.Season)
}

func TestParsePreference_MissingFieldsAreEmpty(t *testing.T) {
	p := ParsePreference(`{"color":"red"}`)
	assert.Equal(t, "red", p.Color)
	assert.Empty(t, p.Category)
	assert.Empty(t, p.Style)
	assert.Empty(t, p.Season)
}

func TestParsePreference_GarbageIsZeroValue(t *testing.T) {
	for _, summary := range []string{"", "no json here", "{broken", "0.0", "```\n```"} {
		p := ParsePreference(summary)
		assert.True(t, p.IsEmpty(), "summary %q debe degradar a Preference vacía", summary)
	}
}

func TestMergePreferences_FirstNonEmptyWins(t *testing.T) {
	primary := Preference{Category: "outerwear", Color: ""}
	secondary := Preference{Category: "tops", Color: "red", Season: "winter"}

	merged := MergePreferences(primary, secondary)
	assert.Equal(t, "outerwear", merged.Category, "el resultado prioritario gana")
	assert.Equal(t, "red", merged.Color, "los huecos se rellenan con el secundario")
	assert.Equal(t, "winter", merged.Season)
}
