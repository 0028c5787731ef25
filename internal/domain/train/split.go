package train

import (
	"math/rand"

	"github.com/civicgrid/foresight/internal/domain/category"
)

// Split ratio shared by every variant: 80% train, 20% held out.
const testFraction = 0.2

// randomSplit shuffles indices with the seeded generator and carves off the
// test fraction.
func randomSplit(n int, rng *rand.Rand) (trainIdx, testIdx []int) {
	idx := rng.Perm(n)
	cut := n - int(float64(n)*testFraction)
	if cut < 1 {
		cut = 1
	}
	return idx[:cut], idx[cut:]
}

// stratifiedSplit splits per class so the held-out set preserves the label
// distribution. Classes with a single sample go entirely to the training
// split.
func stratifiedSplit(labels []category.Category, rng *rand.Rand) (trainIdx, testIdx []int) {
	groups := make(map[category.Category][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	// Iterate classes in canonical order so the split is reproducible for
	// a fixed seed.
	for _, c := range category.All() {
		group := groups[c]
		if len(group) == 0 {
			continue
		}
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		nTest := int(float64(len(group)) * testFraction)
		if nTest == 0 && len(group) > 1 {
			nTest = 1
		}
		cut := len(group) - nTest
		trainIdx = append(trainIdx, group[:cut]...)
		testIdx = append(testIdx, group[cut:]...)
	}
	return trainIdx, testIdx
}

// chronologicalSplit keeps ordering intact: the first 80% trains, the tail
// evaluates. Used by the sequence model, where a random split would leak
// the future into the past.
func chronologicalSplit(n int) (trainEnd int) {
	trainEnd = n - int(float64(n)*testFraction)
	if trainEnd < 1 {
		trainEnd = 1
	}
	return trainEnd
}
