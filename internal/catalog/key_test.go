package catalog

import "testing"

func TestNewKeyNormalizes(t *testing.T) {
	if got := NewKey("  The Beatles ", " Abbey Road "); got != "the beatles|abbey road" {
		t.Errorf("NewKey = %q", got)
	}
	if NewKey("Artist", "Album") != NewKey("ARTIST", "album") {
		t.Error("keys should be case-insensitive")
	}
}

func TestNewKeyEmptyAlbum(t *testing.T) {
	if key := NewKey("Artist", "   "); !key.IsZero() {
		t.Errorf("empty album produced key %q", key)
	}
}

func TestNormalizeCatalog(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"cat 001", "CAT001"},
		{"  CAT001  ", "CAT001"},
		{"ab c d", "ABCD"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCatalog(tc.in); got != tc.want {
			t.Errorf("NormalizeCatalog(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCatalogIdempotent(t *testing.T) {
	once := NormalizeCatalog("cat 001 x")
	if twice := NormalizeCatalog(once); twice != once {
		t.Errorf("second pass changed %q to %q", once, twice)
	}
}

func TestCatalogPresent(t *testing.T) {
	for _, absent := range []string{"", "  ", "NONE", "none", " None "} {
		if catalogPresent(absent) {
			t.Errorf("catalogPresent(%q) = true", absent)
		}
	}
	if !catalogPresent("CAT001") {
		t.Error("catalogPresent(CAT001) = false")
	}
}
