package geo

import "testing"

func TestSkipLookup(t *testing.T) {
	skip := []string{"unknown", "127.0.0.1", "192.168.0.1", "192.168.200.14", "10.0.0.1", "10.255.1.1", "::1", ""}
	for _, k := range skip {
		if !SkipLookup(k) {
			t.Fatalf("expected %q to skip lookup", k)
		}
	}
	lookup := []string{"8.8.8.8", "203.0.113.9", "100.10.0.1", "2001:db8::1"}
	for _, k := range lookup {
		if SkipLookup(k) {
			t.Fatalf("expected %q to be looked up", k)
		}
	}
}
