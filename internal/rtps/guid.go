package rtps

import "fmt"

// GUID globally identifies an RTPS entity: a participant's GUID prefix plus
// the entity ID local to that participant.
type GUID struct {
	Prefix GUIDPrefix
	Entity EntityID
}

// ParticipantGUID returns the GUID of the participant that owns e, i.e. e
// with its entity ID replaced by ENTITYID_PARTICIPANT.
func (g GUID) ParticipantGUID() GUID {
	return GUID{Prefix: g.Prefix, Entity: EntityIDParticipant}
}

// String renders the GUID as "<prefix-hex>|<entity>", e.g.
// "010203040506070809101112|00000002|WND" for a non-well-known entity, or
// "010203040506070809101112|SPDP_BUILTIN_PARTICIPANT_WRITER" for one of the
// recognized discovery endpoints.
func (g GUID) String() string {
	return fmt.Sprintf("%s|%s", g.Prefix, g.Entity)
}
