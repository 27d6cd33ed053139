package interval_test

import (
	"reflect"
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/interval"
)

func q(n int64) partitur.Fraction { return partitur.NewFraction(n, 4) }

func values(ivs []interval.Interval[string]) []string {
	ret := []string{}
	for _, iv := range ivs {
		ret = append(ret, iv.Value)
	}
	return ret
}

var testIntervals = []interval.Interval[string]{
	{Start: q(0), Stop: q(4), Value: "a"},
	{Start: q(1), Stop: q(2), Value: "b"},
	{Start: q(2), Stop: q(2), Value: "zero"},
	{Start: q(5), Stop: q(9), Value: "c"},
	{Start: q(8), Stop: q(12), Value: "d"},
	{Start: q(13), Stop: q(14), Value: "e"},
}

func TestFindOverlapping(t *testing.T) {
	tree := interval.New(testIntervals)
	if tree.Len() != len(testIntervals) {
		t.Fatalf("wrong length, got %v, expected %v", tree.Len(), len(testIntervals))
	}
	cases := []struct {
		start, stop int64
		expected    []string
	}{
		{0, 0, []string{"a"}},
		{2, 3, []string{"a", "b", "zero"}},
		{4, 5, []string{"a", "c"}},
		{6, 7, []string{"c"}},
		{9, 9, []string{"c", "d"}},
		{12, 13, []string{"d", "e"}},
		{15, 20, []string{}},
		{0, 20, []string{"a", "b", "zero", "c", "d", "e"}},
	}
	for _, c := range cases {
		got := values(tree.FindOverlapping(q(c.start), q(c.stop)))
		if !reflect.DeepEqual(got, c.expected) {
			t.Fatalf("FindOverlapping(%v, %v) got %v, expected %v", c.start, c.stop, got, c.expected)
		}
	}
}

func TestFindContained(t *testing.T) {
	tree := interval.New(testIntervals)
	got := values(tree.FindContained(q(1), q(9)))
	expected := []string{"b", "zero", "c"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("FindContained got %v, expected %v", got, expected)
	}
}

func TestBruteForceAgreement(t *testing.T) {
	var ivs []interval.Interval[int]
	for i := int64(0); i < 40; i++ {
		start := partitur.NewFraction((i*7)%23, 3)
		stop := start.Add(partitur.NewFraction(i%5, 2))
		ivs = append(ivs, interval.Interval[int]{Start: start, Stop: stop, Value: int(i)})
	}
	tree := interval.New(ivs)
	for a := int64(0); a < 30; a++ {
		for b := a; b < a+6; b++ {
			start, stop := partitur.NewFraction(a, 3), partitur.NewFraction(b, 3)
			expected := []int{}
			for _, iv := range ivs {
				if iv.Start.LessEq(stop) && iv.Stop.GreaterEq(start) {
					expected = append(expected, iv.Value)
				}
			}
			got := []int{}
			for _, iv := range tree.FindOverlapping(start, stop) {
				got = append(got, iv.Value)
			}
			if !reflect.DeepEqual(got, expected) {
				t.Fatalf("FindOverlapping(%v, %v) got %v, expected %v", start, stop, got, expected)
			}
		}
	}
}

func TestNilTree(t *testing.T) {
	var tree *interval.Tree[int]
	if tree.Len() != 0 || tree.FindOverlapping(q(0), q(1)) != nil {
		t.Fatalf("nil tree should be empty")
	}
}
