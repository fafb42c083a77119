package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/ratestat"
	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
)

func TestRenderIncludesWriterAndAbnormality(t *testing.T) {
	guid := rtps.GUID{
		Prefix: rtps.GUIDPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Entity: rtps.EntityID{0, 0, 2, byte(rtps.EntityKindWriterNoKeyUser)},
	}
	writer := &state.WriterState{
		GUID:        guid,
		LastSN:      42,
		HasLastSN:   true,
		MessageCount: 1,
		ByteCount:    100,
		MessageRate:  ratestat.New(time.Second),
		ByteRate:     ratestat.New(time.Second),
	}
	snap := state.Snapshot{
		Participants: []*state.ParticipantState{
			{
				Prefix:  guid.Prefix,
				Writers: map[rtps.GUID]*state.WriterState{guid: writer},
				Readers: map[rtps.GUID]*state.ReaderState{},
			},
		},
		Abnormalities: []state.Abnormality{
			{Time: time.Now(), Kind: "sn-regression", Detail: "writer regressed", WriterID: guid},
		},
	}

	var buf bytes.Buffer
	New(&buf).Render(snap)
	out := buf.String()

	if !strings.Contains(out, "42") {
		t.Errorf("rendered output missing last_sn 42:\n%s", out)
	}
	if !strings.Contains(out, "sn-regression") {
		t.Errorf("rendered output missing abnormality kind:\n%s", out)
	}
}
