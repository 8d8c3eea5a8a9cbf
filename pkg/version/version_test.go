package version

import (
	"strings"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "dev"
	if got := GetFullVersion(); !strings.HasPrefix(got, "cordkit/dev (commit:") {
		t.Fatalf("unexpected dev version string %q", got)
	}

	Version = "1.2.0"
	if got := GetFullVersion(); got != "cordkit/1.2.0" {
		t.Fatalf("expected cordkit/1.2.0, got %q", got)
	}
}

func TestUserAgentFormat(t *testing.T) {
	if ua := UserAgent(); !strings.HasPrefix(ua, "DiscordBot (") {
		t.Fatalf("expected DiscordBot user agent, got %q", ua)
	}
}
