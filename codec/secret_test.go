package codec

import "testing"

func TestSecretCodecRoundTripsWithKey(t *testing.T) {
	c := SecretCodec{}.WithKey(SecretKey("correct horse battery staple"))

	encoded, err := c.Encode("secret", "swordfish")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := c.Decode("secret", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != "swordfish" {
		t.Fatalf("got %q, want %q", decoded, "swordfish")
	}
}

func TestSecretCodecRejectsMissingKey(t *testing.T) {
	c := SecretCodec{}
	if _, err := c.Encode("secret", "swordfish"); err == nil {
		t.Fatal("expected Encode to fail with no key configured")
	}
}

func TestRegistryWithSecretKeyWiresTheSecretCodec(t *testing.T) {
	r := NewRegistry().WithSecretKey(SecretKey("correct horse battery staple"))
	c, err := r.Get("secret")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	encoded, err := c.Encode("secret", "swordfish")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode("secret", encoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestNewRegistryDefaultSecretCodecHasNoKey(t *testing.T) {
	r := NewRegistry()
	c, err := r.Get("secret")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Encode("secret", "swordfish"); err == nil {
		t.Fatal("expected the default keyless registry to reject secret attributes")
	}
}
