package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

func newTree(people []types.Person, couples []types.Couple) *types.Tree {
	tree := types.NewTree()
	for _, p := range people {
		tree.People[p.ID] = p
	}
	for _, c := range couples {
		tree.Couples[c.ID] = c
	}
	return tree
}

func TestBuild(t *testing.T) {
	tree := newTree(
		[]types.Person{
			{ID: 1},
			{ID: 2},
			{ID: 5, ParentCoupleID: types.Some(10)},
			{ID: 3, ParentCoupleID: types.Some(10)},
			{ID: 4, ParentCoupleID: types.Some(99)},
		},
		[]types.Couple{
			{ID: 20, MaleID: types.Some(1), FemaleID: types.Some(7)},
			{ID: 10, MaleID: types.Some(1), FemaleID: types.Some(2)},
			{ID: 30},
		},
	)

	idx := Build(tree)

	assert.Equal(t, map[int][]int{
		10: {3, 5},
		20: {},
		30: {},
	}, idx.ChildrenOf)

	assert.Equal(t, map[int][]int{
		1: {10, 20},
		2: {10},
		3: {},
		4: {},
		5: {},
	}, idx.CouplesOf)
}

func TestBuild_SamePersonInBothRoles(t *testing.T) {
	tree := newTree(
		[]types.Person{{ID: 1}},
		[]types.Couple{{ID: 2, MaleID: types.Some(1), FemaleID: types.Some(1)}},
	)

	idx := Build(tree)

	assert.Equal(t, []int{2, 2}, idx.SpouseCouples(1))
}

func TestBuild_EmptyTree(t *testing.T) {
	idx := Build(types.NewTree())

	assert.Empty(t, idx.ChildrenOf)
	assert.Empty(t, idx.CouplesOf)
	assert.Nil(t, idx.Children(1))
}
