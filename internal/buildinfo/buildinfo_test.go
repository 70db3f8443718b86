package buildinfo

import (
	"strings"
	"testing"
)

func TestBuildInfoHasEveryKey(t *testing.T) {
	info := BuildInfo()
	if len(info) != len(Keys) {
		t.Errorf("BuildInfo has %d entries, Keys has %d", len(info), len(Keys))
	}
	for _, k := range Keys {
		if info[k] == "" {
			t.Errorf("BuildInfo()[%q] is empty", k)
		}
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "chatty/"+Version+" (") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
