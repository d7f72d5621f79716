package game

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"   ":      "",
		" Potato ": "potato",
		"SILENT":   "silent",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountLetters(t *testing.T) {
	got := CountLetters("potato")
	want := Letters{'p': 1, 'o': 2, 't': 2, 'a': 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CountLetters = %v, want %v", got, want)
	}
	if got.Total() != 6 {
		t.Fatalf("Total = %d, want 6", got.Total())
	}
}

func TestConsumeIsAllOrNothing(t *testing.T) {
	available := CountLetters("potato")
	snapshot := available.Clone()

	if _, ok := available.Consume("potatoes"); ok {
		t.Fatal("expected potatoes to exceed the available letters")
	}
	if !reflect.DeepEqual(available, snapshot) {
		t.Fatal("failed consume must not modify the receiver")
	}

	left, ok := available.Consume("toot")
	if !ok {
		t.Fatal("expected toot to fit")
	}
	if !reflect.DeepEqual(available, snapshot) {
		t.Fatal("successful consume must not modify the receiver either")
	}
	if !reflect.DeepEqual(left, Letters{'p': 1, 'o': 0, 't': 0, 'a': 1}) {
		t.Fatalf("left = %v", left)
	}
}

func TestConsumeDifferenceEqualsWordCounts(t *testing.T) {
	available := CountLetters("pantries")
	for _, word := range []string{"pant", "ries", "pi", "saint", "x"} {
		left, ok := available.Consume(word)
		if !ok {
			continue
		}
		used := CountLetters(word)
		for r, n := range available {
			if left[r] < 0 {
				t.Fatalf("%s: negative count for %q", word, r)
			}
			if n-left[r] != used[r] {
				t.Fatalf("%s: consumed %d of %q, want %d", word, n-left[r], r, used[r])
			}
		}
	}
}

func TestLettersStrings(t *testing.T) {
	got := Letters{'a': 1, 'b': 0}.Strings()
	if !reflect.DeepEqual(got, map[string]int{"a": 1, "b": 0}) {
		t.Fatalf("Strings = %v", got)
	}
}
