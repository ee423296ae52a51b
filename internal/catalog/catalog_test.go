package catalog

import "testing"

func TestMBTAClassify(t *testing.T) {
	c := MBTA()

	cases := []struct {
		route    string
		wantMode Mode
		wantOK   bool
	}{
		{"Red", ModeRapid, true},
		{"CR-Providence", ModeCR, true},
		{"1", ModeBus, true},
		{"nonexistent", "", false},
	}

	for _, tc := range cases {
		mode, ok := c.Classify(tc.route)
		if ok != tc.wantOK || mode != tc.wantMode {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", tc.route, mode, ok, tc.wantMode, tc.wantOK)
		}
	}
}

func TestMBTARoutesAreDisjoint(t *testing.T) {
	if _, err := New(mbtaRoutesCR, mbtaRoutesRapid, busStops); err != nil {
		t.Fatalf("expected disjoint MBTA tables, got error: %v", err)
	}
}

func TestNewRejectsOverlap(t *testing.T) {
	_, err := New([]string{"Red"}, []string{"Red"}, nil)
	if err == nil {
		t.Fatal("expected an error for a route listed in two tiers")
	}
}

func TestInScopeBusStopFilter(t *testing.T) {
	c := MBTA()

	if !c.InScope("1", "110") {
		t.Error("stop 110 on route 1 should be in scope")
	}
	if c.InScope("1", "99999999") {
		t.Error("stop 99999999 on route 1 should not be in scope")
	}
}

func TestInScopeRailAlwaysInScope(t *testing.T) {
	c := MBTA()
	if !c.InScope("Red", "any-stop-id") {
		t.Error("rapid transit routes should track every stop")
	}
	if !c.InScope("CR-Providence", "any-stop-id") {
		t.Error("commuter rail routes should track every stop")
	}
}

func TestForAgencyKnownAndUnknown(t *testing.T) {
	for _, name := range []string{"mbta", "ctdot", "lirr", "metra", "nycsubway", "septa_regional_rail", "wmata_rail"} {
		if _, ok := ForAgency(name); !ok {
			t.Errorf("expected agency %q to resolve to a catalog", name)
		}
	}
	if _, ok := ForAgency("not-a-real-agency"); ok {
		t.Error("expected an unknown agency to fail")
	}
}

func TestRoutesForMode(t *testing.T) {
	c := MBTA()
	rapid := c.RoutesForMode(ModeRapid)
	if len(rapid) != 7 {
		t.Errorf("expected 7 rapid routes, got %d", len(rapid))
	}
}
