package tablestore

import "testing"

func TestKey_WithPrefix(t *testing.T) {
	s := &Store{prefix: "tables"}
	if got := s.key("ntlm_ascii-32-95#1-7_0_450000x16777216_0.rt"); got != "tables/ntlm_ascii-32-95#1-7_0_450000x16777216_0.rt" {
		t.Errorf("key() = %q", got)
	}
}

func TestKey_WithoutPrefix(t *testing.T) {
	s := &Store{}
	name := "ntlm_ascii-32-95#1-7_0_450000x16777216_0.rt"
	if got := s.key(name); got != name {
		t.Errorf("key() = %q, want %q", got, name)
	}
}
