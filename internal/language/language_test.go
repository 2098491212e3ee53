package language

import (
	"math/rand"
	"testing"

	"github.com/GT-610/chaos-translator/internal/apperrors"
)

func TestDefaultCatalog_EligibleSet(t *testing.T) {
	cat := Default()
	for _, code := range Blacklist {
		if cat.IsEligible(code) {
			t.Errorf("blacklisted code %q is eligible", code)
		}
	}
	for _, code := range cat.Eligible() {
		if len(code) != 2 {
			t.Errorf("eligible code %q is not two characters", code)
		}
		if !cat.Has(code) {
			t.Errorf("eligible code %q missing from catalog", code)
		}
	}
	for _, code := range []string{"zh-cn", "ceb", "haw"} {
		if cat.IsEligible(code) {
			t.Errorf("long code %q should not be eligible", code)
		}
		if !cat.Has(code) {
			t.Errorf("long code %q should still be in the catalog", code)
		}
	}
	if !cat.IsEligible("FR") {
		t.Errorf("expected case-insensitive eligibility for FR")
	}
}

func TestDisplayName(t *testing.T) {
	cat := Default()
	name, err := cat.DisplayName("fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "french" {
		t.Fatalf("DisplayName(fr) = %q, want french", name)
	}

	_, err = cat.DisplayName("xx")
	if !apperrors.Is(err, apperrors.KindUnknownLanguage) {
		t.Fatalf("expected unknown language error, got %v", err)
	}
}

func TestPickRandomEligible(t *testing.T) {
	cat := NewCatalog(map[string]string{"en": "english", "fr": "french", "ar": "arabic", "zh-cn": "chinese"}, []string{"ar"})
	rng := rand.New(rand.NewSource(7))
	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		code := cat.PickRandomEligible(rng)
		if !cat.IsEligible(code) {
			t.Fatalf("picked ineligible code %q", code)
		}
		seen[code]++
	}
	if seen["en"] == 0 || seen["fr"] == 0 {
		t.Fatalf("expected both eligible codes to be picked, got %v", seen)
	}
}

func TestPickRandomEligible_Empty(t *testing.T) {
	cat := NewCatalog(map[string]string{"ar": "arabic"}, []string{"ar"})
	if got := cat.PickRandomEligible(rand.New(rand.NewSource(1))); got != "" {
		t.Fatalf("expected empty pick, got %q", got)
	}
}

func TestNewCatalog_Immutable(t *testing.T) {
	src := map[string]string{"en": "english"}
	cat := NewCatalog(src, nil)
	src["de"] = "german"
	if cat.Has("de") {
		t.Fatalf("catalog must not observe changes to its source map")
	}
	elig := cat.Eligible()
	elig[0] = "xx"
	if !cat.IsEligible("en") || cat.IsEligible("xx") {
		t.Fatalf("Eligible must return a copy")
	}
}

func TestEntries_Sorted(t *testing.T) {
	entries := Default().Entries()
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.Name > cur.Name || (prev.Name == cur.Name && prev.Code > cur.Code) {
			t.Fatalf("entries not sorted at %d: %v then %v", i, prev, cur)
		}
	}
}
