package assets

import (
	"bytes"
	"testing"
)

func TestIndex(t *testing.T) {
	for _, minified := range []bool{false, true} {
		page, err := Index(minified)
		if err != nil {
			t.Fatalf("Index(%v) failed: %v", minified, err)
		}

		for _, want := range []string{"legendColor", "eyedrop", "/api/regions", "--accent"} {
			if !bytes.Contains(page, []byte(want)) {
				t.Errorf("Index(%v) misses %q", minified, want)
			}
		}
		if bytes.Contains(page, []byte("{{")) {
			t.Errorf("Index(%v) has unexpanded template actions", minified)
		}
	}

	plain, _ := Index(false)
	small, _ := Index(true)
	if len(small) >= len(plain) {
		t.Errorf("minified page (%d) is not smaller than plain (%d)", len(small), len(plain))
	}
}

func TestFavicon(t *testing.T) {
	icon, err := Favicon(true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(icon, []byte("<svg")) {
		t.Errorf("favicon = %.20s", icon)
	}
}
