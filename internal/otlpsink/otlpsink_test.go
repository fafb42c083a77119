package otlpsink

import (
	"testing"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

func TestTrafficTypeUserDefinedVsBuiltin(t *testing.T) {
	userWriter := rtps.GUID{Entity: rtps.EntityID{0, 0, 2, byte(rtps.EntityKindWriterNoKeyUser)}}
	if got := trafficType(userWriter); got != "USER_DEFINED" {
		t.Errorf("trafficType(user writer) = %q, want USER_DEFINED", got)
	}

	builtinWriter := rtps.GUID{Entity: rtps.EntityIDSPDPBuiltinParticipantWriter}
	if got := trafficType(builtinWriter); got != "BUILT_IN" {
		t.Errorf("trafficType(builtin writer) = %q, want BUILT_IN", got)
	}
}

func TestStripScheme(t *testing.T) {
	cases := map[string]string{
		"http://localhost:4317":  "localhost:4317",
		"https://collector:4317": "collector:4317",
		"localhost:4317":         "localhost:4317",
	}
	for in, want := range cases {
		if got := stripScheme(in); got != want {
			t.Errorf("stripScheme(%q) = %q, want %q", in, got, want)
		}
	}
}
