package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
)

func TestCriteriaFromPreference_Deterministic(t *testing.T) {
	p := Preference{Category: "outerwear", Style: "casual", Color: "red", Season: "winter"}

	a := CriteriaFromPreference(p)
	b := CriteriaFromPreference(p)

	assert.Equal(t, a, b, "la misma Preference produce el mismo criterio campo a campo")
	assert.Equal(t, productDomain.CategoryOuter, a.Category)
	assert.Equal(t, []string{"casual", "red"}, a.IncludeKeywords, "keywords ordenadas")
	assert.Equal(t, "winter", a.Season)
}

func TestCriteriaFromPreference_PartialPreference(t *testing.T) {
	p := Preference{Category: "unknown-group", Color: "red"}

	c := CriteriaFromPreference(p)

	assert.Equal(t, productDomain.CategoryUnmatched, c.Category, "grupo desconocido degrada, no falla")
	assert.Equal(t, []string{"red"}, c.IncludeKeywords)
	assert.Empty(t, c.Season)
}

func TestCriteriaFromPreference_EmptyPreference(t *testing.T) {
	c := CriteriaFromPreference(Preference{})

	assert.Equal(t, productDomain.CategoryUnmatched, c.Category)
	assert.Empty(t, c.IncludeKeywords, "conjunto vacío es válido: sin acotación por keywords")
	assert.False(t, c.HasFilters())
	assert.Empty(t, c.ToConditions(), "sin filtros no hay condiciones SQL")
}

func TestKeywordCriteria_ToConditions(t *testing.T) {
	c := CriteriaFromPreference(Preference{Category: "shoes", Style: "running", Season: "summer"})

	conds := c.ToConditions()
	assert.Len(t, conds, 3)
	assert.Equal(t, "category", conds[0].Field)
	assert.Equal(t, string(productDomain.CategoryShoes), conds[0].Value)
	assert.Equal(t, "name", conds[1].Field)
	assert.Equal(t, "%running%", conds[1].Value)
	assert.Equal(t, "season", conds[2].Field)
}

func TestKeywordCriteria_UnmatchedCategoryAddsNoCondition(t *testing.T) {
	c := CriteriaFromPreference(Preference{Category: "spaceships", Color: "red"})

	conds := c.ToConditions()
	assert.Len(t, conds, 1, "solo la keyword; la categoría desconocida no filtra")
	assert.Equal(t, "name", conds[0].Field)
}
