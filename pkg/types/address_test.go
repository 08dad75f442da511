package types

import "testing"

func TestAddressRoundTripThroughDriverValue(t *testing.T) {
	lat := 40.7
	in := Address{Line1: "12 Market St", City: "Newark", State: "NJ", Zip: "07102", Lat: &lat}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out Address
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.Line1 != in.Line1 || out.Zip != in.Zip || out.Lat == nil || *out.Lat != lat {
		t.Fatalf("unexpected address %+v", out)
	}
}

func TestAddressZeroStoresNull(t *testing.T) {
	v, err := Address{}.Value()
	if err != nil || v != nil {
		t.Fatalf("expected nil value for zero address, got %v err=%v", v, err)
	}
	var out Address
	if err := out.Scan(nil); err != nil || !out.IsZero() {
		t.Fatalf("expected zero address from NULL, got %+v err=%v", out, err)
	}
}

func TestAddressOneLine(t *testing.T) {
	a := Address{Line1: "1 Dock Rd", City: "Camden", State: "NJ", Zip: "08102"}
	if got := a.OneLine(); got != "1 Dock Rd, Camden, NJ 08102" {
		t.Fatalf("unexpected one line %q", got)
	}
}
