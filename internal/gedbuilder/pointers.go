package gedbuilder

import (
	"fmt"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// Pointers maps record identifiers to GEDCOM cross-reference pointers.
type Pointers struct {
	Individuals map[int]string
	Families    map[int]string
}

// AssignPointers numbers people and couples from zero in ascending
// identifier order. The width grows past four digits as needed.
func AssignPointers(tree *types.Tree) Pointers {
	p := Pointers{
		Individuals: make(map[int]string, len(tree.People)),
		Families:    make(map[int]string, len(tree.Couples)),
	}
	for i, id := range tree.PersonIDs() {
		p.Individuals[id] = Pointer('I', i)
	}
	for i, id := range tree.CoupleIDs() {
		p.Families[id] = Pointer('F', i)
	}
	return p
}

// Pointer formats a pointer such as @I0007@.
func Pointer(role byte, index int) string {
	return fmt.Sprintf("@%c%04d@", role, index)
}

// Individual returns the pointer for a person, if the person is known.
func (p Pointers) Individual(id types.OptionalInt) (string, bool) {
	if !id.Valid {
		return "", false
	}
	ptr, ok := p.Individuals[id.Value]
	return ptr, ok
}

// Family returns the pointer for a couple, if the couple is known.
func (p Pointers) Family(id types.OptionalInt) (string, bool) {
	if !id.Valid {
		return "", false
	}
	ptr, ok := p.Families[id.Value]
	return ptr, ok
}
