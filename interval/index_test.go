package interval

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestIndexOverlapping(t *testing.T) {
	regions := []Region{
		{"chr1", 100, 300},
		{"chr1", 150, 250},
		{"chr1", 400, 500},
		{"chr2", 100, 300},
	}
	idx, err := NewIndex(regions)
	expect.NoError(t, err)

	// Both chr1 regions overlap [200, 210); sorted by start.
	got := idx.Overlapping("chr1", 200, 210)
	expect.EQ(t, got, []Region{{"chr1", 100, 300}, {"chr1", 150, 250}})

	// Half-open semantics: [300, 310) touches neither [100,300) nor [400,500).
	expect.EQ(t, len(idx.Overlapping("chr1", 300, 310)), 0)
	expect.EQ(t, idx.Overlapping("chr1", 399, 401), []Region{{"chr1", 400, 500}})

	// Unknown chromosome is not an error.
	expect.EQ(t, len(idx.Overlapping("chr3", 0, 1000)), 0)
	expect.False(t, idx.HasChrom("chr3"))
	expect.True(t, idx.HasChrom("chr2"))
}

func TestIndexDeterministicOrder(t *testing.T) {
	// Same start: ties break by end, then insertion order.
	regions := []Region{
		{"chr1", 100, 400},
		{"chr1", 100, 200},
		{"chr1", 100, 200},
	}
	idx, err := NewIndex(regions)
	expect.NoError(t, err)
	for i := 0; i < 10; i++ {
		got := idx.Overlapping("chr1", 150, 160)
		expect.EQ(t, got, []Region{
			{"chr1", 100, 200},
			{"chr1", 100, 200},
			{"chr1", 100, 400},
		})
	}
}
