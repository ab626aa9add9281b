package domain

import (
	"sort"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// KeywordCriteria encapsula el filtro de búsqueda de productos derivado de
// una Preference. Inmutable una vez construido.
type KeywordCriteria struct {
	Category        productDomain.Category
	IncludeKeywords []string // ordenado, sin duplicados
	Season          string
}

// CriteriaFromPreference es pura y determinista: la misma Preference produce
// siempre el mismo criterio.
//   - category: lookup exacto del nombre de grupo; desconocido → Unmatched.
//   - keywords: unión de style y color no vacíos.
//   - season: se propaga tal cual.
func CriteriaFromPreference(p Preference) KeywordCriteria {
	set := make(map[string]struct{})
	if p.Style != "" {
		set[p.Style] = struct{}{}
	}
	if p.Color != "" {
		set[p.Color] = struct{}{}
	}

	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return KeywordCriteria{
		Category:        productDomain.CategoryFromGroupName(p.Category),
		IncludeKeywords: keywords,
		Season:          p.Season,
	}
}

// HasFilters indica si el criterio acota algo.
func (c KeywordCriteria) HasFilters() bool {
	return c.Category.IsValid() || len(c.IncludeKeywords) > 0 || c.Season != ""
}

// ToConditions traduce el criterio al filtro neutral del repositorio de
// productos. Una categoría Unmatched no aporta condición: la recomendación
// degrada a "sin filtro de categoría".
func (c KeywordCriteria) ToConditions() []sharedDomain.Criterion {
	var conds []sharedDomain.Criterion
	if c.Category.IsValid() {
		conds = append(conds, sharedDomain.Criterion{
			Field: "category", Op: sharedDomain.OpEq, Value: string(c.Category),
		})
	}
	for _, kw := range c.IncludeKeywords {
		conds = append(conds, sharedDomain.Criterion{
			Field: "name", Op: sharedDomain.OpILike, Value: "%" + kw + "%",
		})
	}
	if c.Season != "" {
		conds = append(conds, sharedDomain.Criterion{
			Field: "season", Op: sharedDomain.OpEq, Value: c.Season,
		})
	}
	return conds
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Criteria = KeywordCriteria{}
