package domain

import "strings"

// Category agrupa los productos del catálogo en familias fijas.
type Category string

const (
	CategoryOuter     Category = "OUTER"
	CategoryTop       Category = "TOP"
	CategoryBottom    Category = "BOTTOM"
	CategoryDress     Category = "DRESS"
	CategoryBag       Category = "BAG"
	CategoryShoes     Category = "SHOES"
	CategoryAccessory Category = "ACCESSORY"

	// CategoryUnmatched es el resultado de un nombre de grupo desconocido:
	// la recomendación degrada a "sin filtro de categoría", nunca falla.
	CategoryUnmatched Category = "UNMATCHED"
)

// groupNames mapea cada categoría a su nombre de grupo visible.
var groupNames = map[Category]string{
	CategoryOuter:     "outerwear",
	CategoryTop:       "tops",
	CategoryBottom:    "bottoms",
	CategoryDress:     "dresses",
	CategoryBag:       "bags",
	CategoryShoes:     "shoes",
	CategoryAccessory: "accessories",
}

var subCategories = map[Category][]string{
	CategoryOuter:     {"padded jacket", "coat", "jacket", "cardigan", "blazer", "fleece"},
	CategoryTop:       {"knit", "hoodie", "t-shirt", "shirt", "sleeveless"},
	CategoryBottom:    {"jeans", "chinos", "slacks", "leggings", "joggers", "shorts"},
	CategoryDress:     {"mini dress", "midi dress", "long dress", "mini skirt", "midi skirt", "long skirt"},
	CategoryBag:       {"backpack", "crossbody", "shoulder bag", "tote", "clutch"},
	CategoryShoes:     {"sneakers", "dress shoes", "boots", "sandals", "slippers"},
	CategoryAccessory: {"necklace", "earrings", "ring", "bracelet", "hat", "scarf", "belt"},
}

// GroupName devuelve el nombre de grupo de la categoría, o vacío si no tiene.
func (c Category) GroupName() string {
	return groupNames[c]
}

// SubCategories devuelve las subcategorías conocidas del grupo.
func (c Category) SubCategories() []string {
	return subCategories[c]
}

// IsValid indica si la categoría es una de las familias del catálogo.
func (c Category) IsValid() bool {
	_, ok := groupNames[c]
	return ok
}

// CategoryFromGroupName resuelve el nombre de grupo libre que devuelve el
// modelo a una categoría fija. Los desconocidos mapean a CategoryUnmatched.
func CategoryFromGroupName(groupName string) Category {
	needle := strings.ToLower(strings.TrimSpace(groupName))
	if needle == "" {
		return CategoryUnmatched
	}
	for cat, name := range groupNames {
		if name == needle || strings.EqualFold(string(cat), needle) {
			return cat
		}
	}
	return CategoryUnmatched
}
