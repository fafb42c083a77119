package metrics

import "testing"

func TestSnapshotReflectsAdds(t *testing.T) {
	c := New()
	c.PacketsReceived.Add(3)
	c.ParseErrors.Add(1)
	c.MessagesDropped.Add(5)

	snap := c.Snapshot()
	if snap.PacketsReceived != 3 {
		t.Errorf("PacketsReceived = %d, want 3", snap.PacketsReceived)
	}
	if snap.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", snap.ParseErrors)
	}
	if snap.MessagesDropped != 5 {
		t.Errorf("MessagesDropped = %d, want 5", snap.MessagesDropped)
	}
}
