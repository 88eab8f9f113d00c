package charset

import "testing"

func TestLookup_Ascii3295(t *testing.T) {
	cs, err := Lookup("ascii-32-95")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(cs) != 95 {
		t.Fatalf("len(ascii-32-95) = %d, want 95", len(cs))
	}
	if cs[0] != 0x20 || cs[len(cs)-1] != 0x7e {
		t.Fatalf("ascii-32-95 = [%#x .. %#x], want [0x20 .. 0x7e]", cs[0], cs[len(cs)-1])
	}
}

func TestLookup_UnknownName(t *testing.T) {
	if _, err := Lookup("not-a-real-charset"); err == nil {
		t.Fatal("expected error for unknown charset")
	}
}

func TestNames_IncludesAllTenRegisteredCharsets(t *testing.T) {
	want := []string{
		"numeric", "alpha", "alpha-numeric", "loweralpha", "loweralpha-numeric",
		"mixalpha", "mixalpha-numeric", "ascii-32-95", "ascii-32-65-123-4",
		"alpha-numeric-symbol32-space",
	}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() returned %d entries, want %d", len(got), len(want))
	}
	for _, name := range want {
		if _, err := Lookup(name); err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
	}
}
