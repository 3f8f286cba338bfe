package codec

import "testing"

func TestIP6CodecRoundTripsFullyExpandedForm(t *testing.T) {
	c := IP6Codec{}
	const addr = "2001:0db8:0000:0000:0000:0000:0000:0001"

	encoded, err := c.Encode("ip6", addr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := c.Decode("ip6", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("got %q, want %q", decoded, addr)
	}
}

func TestIP6CodecPassesThroughCompressedForm(t *testing.T) {
	c := IP6Codec{}
	const addr = "2001:db8::1"

	encoded, err := c.Encode("ip6", addr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := c.Decode("ip6", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("got %q, want %q", decoded, addr)
	}
}

func TestIP6CodecRejectsPartiallyExpandedForm(t *testing.T) {
	c := IP6Codec{}
	if _, err := c.Encode("ip6", "2001:db8:0:0:0:0:0:1"); err == nil {
		t.Fatal("expected an error for a form that is neither compressed nor fully expanded")
	}
}

func TestIP6CodecRejectsIPv4(t *testing.T) {
	c := IP6Codec{}
	if _, err := c.Encode("ip6", "192.0.2.1"); err == nil {
		t.Fatal("expected ip6 to reject an IPv4 address")
	}
}
