package domain

// Museum identifies one of the two collections a record can belong to.
type Museum string

const (
	MuseumOfTheSea   Museum = "Museo del Mar"
	MuseumOfCostumes Museum = "Museo de Trajes"
)

// CategoryOther closes every category list; editors may also type free text.
const CategoryOther = "Otro"

// Museums lists the collections in display order.
var Museums = []Museum{MuseumOfTheSea, MuseumOfCostumes}

var museumCategories = map[Museum][]string{
	MuseumOfTheSea: {
		"Fósil",
		"Hueso",
		"Reconstrucción de ecosistema",
		"Animatrónico",
		"Reconstrucción animal",
		CategoryOther,
	},
	MuseumOfCostumes: {
		"Traje prehispánico de Colombia",
		"Indumentaria colonial",
		"Comunidades indígenas",
		"Comunidades negras tradicionales",
		"Traje contemporáneo",
		CategoryOther,
	},
}

// Valid reports whether m is one of the known museums.
func (m Museum) Valid() bool {
	_, ok := museumCategories[m]
	return ok
}

// Categories returns a copy of the suggested categories for m.
func (m Museum) Categories() []string {
	cats := museumCategories[m]
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// ConservationState is the four-level condition scale used by curators.
type ConservationState string

const (
	StateExcellent    ConservationState = "Excelente"
	StateGood         ConservationState = "Bueno"
	StateFair         ConservationState = "Regular"
	StateDeteriorated ConservationState = "Deteriorado"
)

// ConservationStates lists the states from best to worst.
var ConservationStates = []ConservationState{StateExcellent, StateGood, StateFair, StateDeteriorated}

func (s ConservationState) Valid() bool {
	switch s {
	case StateExcellent, StateGood, StateFair, StateDeteriorated:
		return true
	}
	return false
}
