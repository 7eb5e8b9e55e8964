package geo

import "testing"

func testConfig() Config {
	return Config{
		TargetRegion:     "coahuila",
		HomeCountry:      "mexico",
		Regions:          []string{"coahuila", "nuevo leon", "jalisco", "sonora"},
		KeyCountries:     []string{"mexico", "estados unidos", "china"},
		KeyOrganizations: []string{"tesla", "grupo industrial saltillo"},
	}
}

func TestClassifyForeignCountryOutranksTargetRegion(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testConfig(), nil)

	got := c.Classify([]string{"Coahuila", "Estados Unidos"}, nil)
	if got.Level != LevelInternational {
		t.Fatalf("expected international when a foreign key country co-occurs, got %q", got.Level)
	}
	if !got.NeedsDeepAnalysis {
		t.Fatalf("foreign key country mention must set the deep-analysis flag")
	}
}

func TestClassifyHomeCountryIsNotForeign(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testConfig(), nil)

	got := c.Classify([]string{"México", "Coahuila"}, nil)
	if got.Level != LevelRegional {
		t.Fatalf("home country mention must not trigger international, got %q", got.Level)
	}
	if got.NeedsDeepAnalysis {
		t.Fatalf("home country mention must not set the deep-analysis flag")
	}
}

func TestClassifyLevels(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testConfig(), nil)

	if got := c.Classify([]string{"Coahuila"}, nil); got.Level != LevelRegional {
		t.Fatalf("expected regional for target region, got %q", got.Level)
	}
	if got := c.Classify([]string{"Jalisco"}, nil); got.Level != LevelNational {
		t.Fatalf("expected national for another in-country region, got %q", got.Level)
	}
	if got := c.Classify([]string{"Marte"}, nil); got.Level != LevelIndeterminate {
		t.Fatalf("expected indeterminate for unknown place, got %q", got.Level)
	}
	if got := c.Classify(nil, nil); got.Level != LevelIndeterminate {
		t.Fatalf("expected indeterminate for no places, got %q", got.Level)
	}
}

func TestClassifyFirstRegionInDetectionOrder(t *testing.T) {
	t.Parallel()

	regions := RegionIndex{
		"coahuila":   7,
		"nuevo leon": 9,
	}
	c := NewClassifier(testConfig(), regions)

	got := c.Classify([]string{"Torreón", "Nuevo León", "Coahuila"}, nil)
	if got.RegionID == nil || *got.RegionID != 9 {
		t.Fatalf("expected first indexed place (Nuevo León, id 9), got %v", got.RegionID)
	}

	none := c.Classify([]string{"Torreón"}, nil)
	if none.RegionID != nil {
		t.Fatalf("expected no region for unindexed places, got %v", none.RegionID)
	}
}

func TestClassifyKeyOrgSetsDeepAnalysisWithoutForeignCountry(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testConfig(), nil)

	got := c.Classify([]string{"Coahuila"}, []string{"TESLA"})
	if !got.NeedsDeepAnalysis {
		t.Fatalf("key organization mention alone must set the deep-analysis flag")
	}
	if got.Level != LevelRegional {
		t.Fatalf("deep-analysis flag must not change the level, got %q", got.Level)
	}
}
