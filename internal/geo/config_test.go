package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKeywordsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write keywords file: %v", err)
	}
	return path
}

func TestLoadFileParsesMixedOrganizationEntries(t *testing.T) {
	t.Parallel()

	path := writeKeywordsFile(t, `
topics:
  inversion: [nearshoring]
geography:
  target_region: Nuevo León
  home_country: México
  regions: [Nuevo León, Coahuila]
  key_countries: [México, China]
  key_organizations:
    - name: Tesla
      category: automotriz
      aliases: [Tesla Inc, Tesla Motors]
    - CFE
`)

	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	orgs := file.Geography.KeyOrganizations
	if len(orgs) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(orgs))
	}
	if orgs[0].Name != "Tesla" || orgs[0].Category != "automotriz" || len(orgs[0].Aliases) != 2 {
		t.Fatalf("unexpected structured entry: %+v", orgs[0])
	}
	if orgs[1].Name != "CFE" || orgs[1].Category != "" || len(orgs[1].Aliases) != 0 {
		t.Fatalf("unexpected bare entry: %+v", orgs[1])
	}
}

func TestConfigFoldsOrganizationAliases(t *testing.T) {
	t.Parallel()

	var file File
	file.Geography.TargetRegion = "Nuevo León"
	file.Geography.HomeCountry = "México"
	file.Geography.KeyOrganizations = []KeyOrganization{
		{Name: "Tesla", Category: "automotriz", Aliases: []string{"Tesla Inc", "Tesla Motors"}},
		{Name: "CFE"},
	}

	cfg := file.Config()
	want := []string{"tesla", "tesla inc", "tesla motors", "cfe"}
	if len(cfg.KeyOrganizations) != len(want) {
		t.Fatalf("expected %d folded organizations, got %v", len(want), cfg.KeyOrganizations)
	}
	for i, name := range want {
		if cfg.KeyOrganizations[i] != name {
			t.Fatalf("expected %q at position %d, got %q", name, i, cfg.KeyOrganizations[i])
		}
	}
}

func TestLoadFileRequiresGeographyAnchors(t *testing.T) {
	t.Parallel()

	path := writeKeywordsFile(t, `
geography:
  home_country: México
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for missing target_region")
	}
}
