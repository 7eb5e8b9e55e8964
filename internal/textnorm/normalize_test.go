package textnorm

import "testing"

func TestFold(t *testing.T) {
	t.Parallel()

	if got := Fold("  Coahuila "); got != "coahuila" {
		t.Fatalf("unexpected fold: %q", got)
	}
	if got := Fold("MÉXICO"); got != "mexico" {
		t.Fatalf("expected diacritics stripped, got %q", got)
	}
	if got := Fold("Nuevo León"); got != "nuevo leon" {
		t.Fatalf("unexpected fold: %q", got)
	}
	if got := Fold("   "); got != "" {
		t.Fatalf("expected blank input to fold to empty string, got %q", got)
	}
}

func TestFoldMatchesAcrossSurfaceForms(t *testing.T) {
	t.Parallel()

	if Fold("Peña Nieto") != Fold("PENA NIETO") {
		t.Fatalf("expected case and diacritic variants to fold identically")
	}
}

func TestFoldAllDropsEmpty(t *testing.T) {
	t.Parallel()

	got := FoldAll([]string{"México", " ", "Saltillo"})
	if len(got) != 2 || got[0] != "mexico" || got[1] != "saltillo" {
		t.Fatalf("unexpected folded list: %v", got)
	}
}
