package rtps

import "testing"

func TestEntityIDStringWellKnown(t *testing.T) {
	cases := []struct {
		name string
		id   EntityID
		want string
	}{
		{"sedp publications writer", EntityIDSEDPBuiltinPublicationsWriter, "SEDP_BUILTIN_PUBLICATIONS_WRITER"},
		{"spdp participant reader", EntityIDSPDPBuiltinParticipantReader, "SPDP_BUILTIN_PARTICIPANT_READER"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.id.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestEntityIDStringUserDefined(t *testing.T) {
	id := EntityID{0x00, 0x00, 0x02, byte(EntityKindWriterNoKeyUser)}
	if got, want := id.String(), "00000002|WND"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGUIDString(t *testing.T) {
	var prefix GUIDPrefix
	copy(prefix[:], []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12})
	g := GUID{
		Prefix: prefix,
		Entity: EntityID{0x00, 0x00, 0x02, byte(EntityKindWriterNoKeyUser)},
	}
	want := "010203040506070809101112|00000002|WND"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEntityKindClassification(t *testing.T) {
	if !EntityKindWriterNoKeyUser.IsWriter() {
		t.Error("WriterNoKeyUser should be a writer")
	}
	if EntityKindWriterNoKeyUser.IsReader() {
		t.Error("WriterNoKeyUser should not be a reader")
	}
	if !EntityKindReaderWithKeyUser.IsReader() {
		t.Error("ReaderWithKeyUser should be a reader")
	}
}

func TestParticipantGUID(t *testing.T) {
	var prefix GUIDPrefix
	copy(prefix[:], []byte{0xaa})
	g := GUID{Prefix: prefix, Entity: EntityIDSEDPBuiltinPublicationsWriter}
	p := g.ParticipantGUID()
	if p.Entity != EntityIDParticipant {
		t.Errorf("ParticipantGUID().Entity = %v, want %v", p.Entity, EntityIDParticipant)
	}
	if p.Prefix != prefix {
		t.Errorf("ParticipantGUID().Prefix changed")
	}
}
