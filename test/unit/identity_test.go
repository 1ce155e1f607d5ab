package unit

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/gamerjani006/anonchat/internal/server"
)

var colorPattern = regexp.MustCompile(`^hsl\((\d+) 70% 55%\)$`)

// TestNewIdentityFormat verifies the shape of generated identities: an
// Anon- prefixed nickname with a 4-digit hex suffix and an HSL color with a
// hue inside [0,360).
func TestNewIdentityFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		identity := server.NewIdentity()

		if !strings.HasPrefix(identity.Nick, "Anon-") {
			t.Fatalf("Expected Anon- prefix, got %q", identity.Nick)
		}

		suffix := strings.TrimPrefix(identity.Nick, "Anon-")
		if len(suffix) != 4 {
			t.Fatalf("Expected 4 hex digits in nickname suffix, got %q", suffix)
		}
		if _, err := strconv.ParseUint(suffix, 16, 16); err != nil {
			t.Fatalf("Nickname suffix %q is not hexadecimal: %v", suffix, err)
		}

		match := colorPattern.FindStringSubmatch(identity.Color)
		if match == nil {
			t.Fatalf("Color %q does not match hsl(H 70%% 55%%)", identity.Color)
		}
		hue, err := strconv.Atoi(match[1])
		if err != nil || hue < 0 || hue >= 360 {
			t.Fatalf("Hue %q out of range [0,360)", match[1])
		}
	}
}

// TestNewIdentityVaries verifies that repeated generation does not get stuck
// on one value. With 16 bits of nickname entropy a small sample must show
// several distinct nicknames.
func TestNewIdentityVaries(t *testing.T) {
	nicks := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		nicks[server.NewIdentity().Nick] = struct{}{}
	}
	if len(nicks) < 25 {
		t.Errorf("Expected varied nicknames, got only %d distinct values in 50 draws", len(nicks))
	}
}
