package security

import (
	"net"
	"testing"
	"time"
)

type fixedResolver map[string][]net.IP

func (f fixedResolver) LookupIPAddr(host string) ([]net.IP, error) {
	return f[host], nil
}

func TestStrictModeBlocksLoopback(t *testing.T) {
	r := fixedResolver{"localhost": {net.ParseIP("127.0.0.1")}}
	_, err := CheckWebhookURL("http://localhost/hook", ModeStrict, r)
	if err == nil {
		t.Fatal("expected loopback to be blocked in strict mode")
	}
}

func TestModerateModeAllowsLoopback(t *testing.T) {
	r := fixedResolver{"localhost": {net.ParseIP("127.0.0.1")}}
	_, err := CheckWebhookURL("http://localhost/hook", ModeModerate, r)
	if err != nil {
		t.Fatalf("expected loopback to be allowed in moderate mode, got %v", err)
	}
}

func TestStrictModeBlocksRFC1918(t *testing.T) {
	r := fixedResolver{"internal.example.com": {net.ParseIP("10.1.2.3")}}
	_, err := CheckWebhookURL("http://internal.example.com/hook", ModeStrict, r)
	if err == nil {
		t.Fatal("expected RFC1918 address to be blocked in strict mode")
	}
}

func TestPermissiveModeStillBlocksMetadataIP(t *testing.T) {
	r := fixedResolver{"evil.example.com": {net.ParseIP("169.254.169.254")}}
	_, err := CheckWebhookURL("http://evil.example.com/hook", ModePermissive, r)
	if err == nil {
		t.Fatal("cloud metadata address must be blocked in every mode")
	}
}

func TestMetadataHostnameBlockedBeforeResolution(t *testing.T) {
	r := fixedResolver{}
	_, err := CheckWebhookURL("http://metadata.google.internal/computeMetadata/v1/", ModePermissive, r)
	if err == nil {
		t.Fatal("expected metadata.google.internal to be blocked regardless of resolution")
	}
}

func TestPermissiveModeAllowsPublicAddress(t *testing.T) {
	r := fixedResolver{"example.com": {net.ParseIP("93.184.216.34")}}
	_, err := CheckWebhookURL("http://example.com/hook", ModeStrict, r)
	if err != nil {
		t.Errorf("expected public address to be allowed, got %v", err)
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual("sametoken", "sametoken") {
		t.Error("equal tokens should compare equal")
	}
	if ConstantTimeEqual("sametoken", "different") {
		t.Error("different tokens should not compare equal")
	}
	if ConstantTimeEqual("short", "muchlongertoken") {
		t.Error("tokens of different length must never compare equal")
	}
}

func TestConstantTimeEqualTimingIsStable(t *testing.T) {
	// Not a precise timing-attack test (unsuitable for unit tests), but a
	// sanity check that comparisons against wrong tokens of equal length
	// complete without the function hanging or erroring.
	token := "the-quick-brown-fox-jumps-over"
	wrong := "the-quick-brown-fox-jumps-ovex"
	start := time.Now()
	for i := 0; i < 1000; i++ {
		ConstantTimeEqual(token, wrong)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("1000 comparisons took unexpectedly long")
	}
}
