package domain

import (
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// ---------------- Implementaciones concretas ----------------

// Filtrado por categoría exacta
type CategoryCriteria struct {
	Category Category
}

func (c CategoryCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: "category", Op: sharedDomain.OpEq, Value: string(c.Category)}}
}

// Filtrado por nombre LIKE / ILIKE
type NameLikeCriteria struct {
	Name string
}

func (c NameLikeCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: "name", Op: sharedDomain.OpILike, Value: "%" + c.Name + "%"}}
}

// Filtrado por temporada exacta
type SeasonCriteria struct {
	Season string
}

func (c SeasonCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: "season", Op: sharedDomain.OpEq, Value: c.Season}}
}

// Filtrado por rango de precio en céntimos
type PriceRangeCriteria struct {
	Min *int64
	Max *int64
}

func (c PriceRangeCriteria) ToConditions() []sharedDomain.Criterion {
	var conds []sharedDomain.Criterion
	if c.Min != nil {
		conds = append(conds, sharedDomain.Criterion{Field: "price", Op: sharedDomain.OpGte, Value: *c.Min})
	}
	if c.Max != nil {
		conds = append(conds, sharedDomain.Criterion{Field: "price", Op: sharedDomain.OpLte, Value: *c.Max})
	}
	return conds
}
