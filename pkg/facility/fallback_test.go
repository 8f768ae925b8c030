package facility

import "testing"

func TestFallback_NonEmptyAndValid(t *testing.T) {
	records := Fallback()
	if len(records) != 30 {
		t.Fatalf("len(Fallback()) = %d, want 30", len(records))
	}
	for _, r := range records {
		if !r.Valid() {
			t.Errorf("fallback record %q is not valid", r.Name)
		}
		if r.Name == "" {
			t.Error("fallback record without a name")
		}
	}
}

func TestFallback_ContainsStadeDeFrance(t *testing.T) {
	first := Fallback()[0]
	if first.Name != "Stade de France, Saint-Denis" {
		t.Errorf("first fallback entry = %q", first.Name)
	}
	if first.Latitude != 48.9244 || first.Longitude != 2.3601 {
		t.Errorf("Stade de France at (%v, %v), want (48.9244, 2.3601)", first.Latitude, first.Longitude)
	}
}

func TestFallback_ReturnsCopy(t *testing.T) {
	records := Fallback()
	records[0].Name = "changed"

	if Fallback()[0].Name != "Stade de France, Saint-Denis" {
		t.Error("mutating the returned slice changed the fallback dataset")
	}
}
