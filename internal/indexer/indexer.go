// =============================================================================
// FTZ to GEDCOM Converter - Relationship Indexer
// =============================================================================
//
// This module derives the reverse lookups the document builder needs:
//
//   couple id -> children (people whose parent couple is that couple)
//   person id -> couples in which the person is the male or female partner
//
// Both maps carry every known identifier as a key, with an empty slice when
// there is nothing to list. Values are ordered by ascending identifier of the
// other collection so repeated runs produce identical output.
//
// =============================================================================

package indexer

import (
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// Indexes holds the reverse relationship lookups for one tree.
type Indexes struct {
	// ChildrenOf maps a couple identifier to its children's identifiers.
	ChildrenOf map[int][]int

	// CouplesOf maps a person identifier to the couples they are a partner in.
	CouplesOf map[int][]int
}

// Build computes the indexes for tree. Dangling references are skipped.
//
// PARAMETERS:
//   - tree: The parsed tree. It is not modified.
//
// RETURNS:
//   - The indexes. Build never fails.
func Build(tree *types.Tree) Indexes {
	idx := Indexes{
		ChildrenOf: make(map[int][]int, len(tree.Couples)),
		CouplesOf:  make(map[int][]int, len(tree.People)),
	}

	coupleIDs := tree.CoupleIDs()
	personIDs := tree.PersonIDs()

	for _, id := range coupleIDs {
		idx.ChildrenOf[id] = []int{}
	}
	for _, id := range personIDs {
		idx.CouplesOf[id] = []int{}
	}

	for _, id := range personIDs {
		parent := tree.People[id].ParentCoupleID
		if !tree.HasCouple(parent) {
			continue
		}
		idx.ChildrenOf[parent.Value] = append(idx.ChildrenOf[parent.Value], id)
	}

	for _, id := range coupleIDs {
		couple := tree.Couples[id]
		for _, partner := range []types.OptionalInt{couple.MaleID, couple.FemaleID} {
			if !tree.HasPerson(partner) {
				continue
			}
			idx.CouplesOf[partner.Value] = append(idx.CouplesOf[partner.Value], id)
		}
	}

	return idx
}

// Children returns the children of a couple, or nil for an unknown couple.
func (i Indexes) Children(coupleID int) []int {
	return i.ChildrenOf[coupleID]
}

// SpouseCouples returns the couples a person is a partner in.
func (i Indexes) SpouseCouples(personID int) []int {
	return i.CouplesOf[personID]
}
