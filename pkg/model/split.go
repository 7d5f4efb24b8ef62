package model

import (
	"math/rand"
	"sort"
)

// TrainTestSplit partitions row indices into train and test sets,
// stratified by label so both parts keep the class balance. The split is
// deterministic for a given seed. testRatio is clamped to leave at least
// one row on each side per class when possible.
func TrainTestSplit(y []int, testRatio float64, seed int64) (train, test []int) {
	if testRatio < 0 {
		testRatio = 0
	}
	if testRatio > 1 {
		testRatio = 1
	}
	byClass := map[int][]int{}
	for i, lab := range y {
		byClass[lab] = append(byClass[lab], i)
	}
	labels := make([]int, 0, len(byClass))
	for lab := range byClass {
		labels = append(labels, lab)
	}
	sort.Ints(labels)

	rnd := rand.New(rand.NewSource(seed))
	for _, lab := range labels {
		idx := byClass[lab]
		rnd.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(float64(len(idx)) * testRatio)
		if nTest == len(idx) && nTest > 1 {
			nTest--
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}
