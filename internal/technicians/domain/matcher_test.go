package domain

import (
	"testing"

	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

func tech(name string, rating float64, region, city string, specs ...Specialty) Technician {
	return Technician{
		ID:          uuid.New(),
		Contact:     Contact{Name: name},
		Specialties: specs,
		Rating:      rating,
		IsAvailable: true,
		Location:    Location{Region: region, City: city},
	}
}

func TestFindBestHigherRatingWins(t *testing.T) {
	t1 := tech("T1", 4, "Centre", "", SpecialtySmartphone)
	t2 := tech("T2", 5, "Centre", "", SpecialtySmartphone, SpecialtyLaptop)
	criteria := MatchCriteria{Specialty: SpecialtySmartphone, Location: Location{Region: "Centre"}}

	if got := Score(t1, criteria); got != 108 {
		t.Fatalf("T1 score = %v, want 108", got)
	}
	if got := Score(t2, criteria); got != 110 {
		t.Fatalf("T2 score = %v, want 110", got)
	}

	best := FindBest([]Technician{t1, t2}, criteria)
	if best == nil || best.Contact.Name != "T2" {
		t.Fatalf("expected T2, got %+v", best)
	}
}

func TestFindBestEmptyCandidates(t *testing.T) {
	criteria := MatchCriteria{Specialty: SpecialtyTV, Location: Location{Region: "Littoral"}}
	if best := FindBest(nil, criteria); best != nil {
		t.Fatalf("expected nil, got %+v", best)
	}
}

func TestFindBestTieKeepsFirst(t *testing.T) {
	a := tech("A", 3, "Centre", "", SpecialtyLaptop)
	b := tech("B", 3, "Centre", "", SpecialtyLaptop)
	criteria := MatchCriteria{Specialty: SpecialtyLaptop, Location: Location{Region: "Centre"}}

	best := FindBest([]Technician{a, b}, criteria)
	if best == nil || best.ID != a.ID {
		t.Fatalf("expected first candidate on tie, got %+v", best)
	}
}

func TestFindBestDeterministic(t *testing.T) {
	candidates := []Technician{
		tech("A", 4.5, "Ouest", "Bafoussam", SpecialtyTablet),
		tech("B", 2, "Centre", "Yaounde", SpecialtySmartphone),
		tech("C", 4.5, "Centre", "Yaounde", SpecialtySmartphone, SpecialtyTablet),
	}
	criteria := MatchCriteria{Specialty: SpecialtyTablet, Location: Location{Region: "Centre", City: "Yaounde"}}

	first := FindBest(candidates, criteria)
	for i := 0; i < 50; i++ {
		again := FindBest(candidates, criteria)
		if again.ID != first.ID {
			t.Fatalf("iteration %d picked %s, want %s", i, again.Contact.Name, first.Contact.Name)
		}
	}
	if first.Contact.Name != "C" {
		t.Fatalf("expected C, got %s", first.Contact.Name)
	}
}

func TestFindBestReturnsCopy(t *testing.T) {
	candidates := []Technician{tech("A", 1, "Centre", "", SpecialtyTV)}
	best := FindBest(candidates, MatchCriteria{Specialty: SpecialtyTV, Location: Location{Region: "Centre"}})
	best.Rating = 5
	if candidates[0].Rating != 1 {
		t.Fatal("FindBest must not alias the candidate slice")
	}
}

func TestScoreLocation(t *testing.T) {
	tc := tech("A", 0, "Centre", "Yaounde", SpecialtyDesktop)
	tc.IsAvailable = false

	cases := []struct {
		name     string
		location Location
		want     float64
	}{
		{"region only", Location{Region: "centre"}, 50},
		{"region and city", Location{Region: "Centre", City: " yaounde "}, 50},
		{"city mismatch", Location{Region: "Centre", City: "Mbalmayo"}, 30},
		{"region mismatch", Location{Region: "Littoral"}, 30},
	}
	for _, c := range cases {
		got := Score(tc, MatchCriteria{Specialty: SpecialtyDesktop, Location: c.location})
		if got != c.want {
			t.Errorf("%s: score = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMatchCriteriaValidate(t *testing.T) {
	if err := (MatchCriteria{Specialty: "drone", Location: Location{Region: "Centre"}}).Validate(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown specialty, got %v", err)
	}
	if err := (MatchCriteria{Specialty: SpecialtyTV, Location: Location{Region: "  "}}).Validate(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing region, got %v", err)
	}
	if err := (MatchCriteria{Specialty: SpecialtyTV, Location: Location{Region: "Centre"}}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseSpecialties(t *testing.T) {
	got, err := ParseSpecialties([]string{"Laptop", "laptop", " tv "})
	if err != nil {
		t.Fatalf("ParseSpecialties() error = %v", err)
	}
	if len(got) != 2 || got[0] != SpecialtyLaptop || got[1] != SpecialtyTV {
		t.Fatalf("unexpected specialties %v", got)
	}
	if _, err := ParseSpecialties(nil); err == nil {
		t.Fatal("expected error for empty specialties")
	}
}
