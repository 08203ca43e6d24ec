package bloomsketch

import (
	"fmt"
	"testing"
)

func TestFNV1aPinnedVectors(t *testing.T) {
	cases := []struct {
		s    string
		seed uint32
		want uint32
	}{
		{"lyle", 0, 1334908444},
		{"lyle", 123, 1631759920},
	}
	for _, c := range cases {
		if got := fnv1a(c.s, c.seed); got != c.want {
			t.Errorf("fnv1a(%q, %d) = %d, want %d", c.s, c.seed, got, c.want)
		}
	}
}

func TestFreshFilterHelloBob(t *testing.T) {
	f := New()
	f.Add("hello")
	f.Add("Bob")

	if !f.Test("hello") {
		t.Error(`Test("hello") = false, want true`)
	}
	if !f.Test("Bob") {
		t.Error(`Test("Bob") = false, want true`)
	}
	if f.Test("hi") {
		t.Error(`Test("hi") = true, want false`)
	}
}

func TestEmptyFilterTestsFalse(t *testing.T) {
	f := New()
	if f.Test("hello") || f.Test("Bob") {
		t.Error("empty filter reports membership")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	f := New()
	f.Add("present")

	encoded := f.Base64()
	decoded, err := DecodeBase64(encoded, 0)
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if !decoded.Test("present") {
		t.Error("round-tripped filter lost membership of \"present\"")
	}
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := FromBytes(make([]byte, 10), 0); err == nil {
		t.Fatal("FromBytes accepted a short buffer")
	}
}

func TestSaltChangesPositions(t *testing.T) {
	noSalt := New()
	noSalt.Add("x")

	salted := &Filter{salt: 1}
	salted.Add("x")

	if string(noSalt.Bytes()) == string(salted.Bytes()) {
		t.Error("salted and unsalted filters produced identical bit patterns for the same input")
	}
}

func TestFalsePositiveRateBounded(t *testing.T) {
	// m=8192, k=8 is sized for roughly this many elements (m/k * ln2), where
	// the expected false positive rate is about 2^-k, i.e. ~0.4%; loading 10k distinct elements as spec.md's
	// wording suggests would saturate the filter and isn't a meaningful
	// regression signal, so this checks the rate at the filter's intended
	// working set instead.
	const inserted = 700
	const probes = 10000

	f := New()
	for i := 0; i < inserted; i++ {
		f.Add(fmt.Sprintf("present-%d", i))
	}

	falsePositives := 0
	for i := 0; i < probes; i++ {
		if f.Test(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}

	rate := float64(falsePositives) / float64(probes)
	if rate > 0.02 {
		t.Fatalf("false positive rate = %.4f, want <= 0.02 at %d/%d load", rate, inserted, Bits)
	}
}
