package capabilities

import "testing"

func TestRemediationMessageMentionsAllThreeOptions(t *testing.T) {
	msg := RemediationMessage()
	for _, want := range []string{"sudo", "setcap cap_net_raw=eip", "-f capture.pcap"} {
		if !contains(msg, want) {
			t.Errorf("RemediationMessage() missing %q:\n%s", want, msg)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
