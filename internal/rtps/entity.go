// Package rtps implements the RTPS wire-protocol data model (§3 of the
// design spec): participant keys, entity identifiers, GUIDs, sequence
// numbers, fragment numbers and locators, plus their canonical display
// forms.
package rtps

import (
	"encoding/hex"
	"fmt"
)

// GUIDPrefixLen is the length in bytes of a participant's GUID prefix.
const GUIDPrefixLen = 12

// GUIDPrefix uniquely identifies a DDS participant.
type GUIDPrefix [GUIDPrefixLen]byte

// UnknownGUIDPrefix is the RTPS GUIDPREFIX_UNKNOWN sentinel.
var UnknownGUIDPrefix GUIDPrefix

// String renders the prefix as lower-case hex, or "UNKNOWN".
func (p GUIDPrefix) String() string {
	if p == UnknownGUIDPrefix {
		return "UNKNOWN"
	}
	return hex.EncodeToString(p[:])
}

// EntityKind is the low byte of an EntityID; it classifies the entity as a
// writer/reader, keyed or not, user-defined or built-in, or a group.
type EntityKind byte

// Entity kind byte values, per the DDSI-RTPS wire format (Table 9.1 in the
// OMG specification).
const (
	EntityKindUnknownUserDefined  EntityKind = 0x00
	EntityKindWriterWithKeyUser   EntityKind = 0x02
	EntityKindWriterNoKeyUser     EntityKind = 0x03
	EntityKindReaderNoKeyUser     EntityKind = 0x04
	EntityKindWriterGroupUser     EntityKind = 0x08
	EntityKindReaderWithKeyUser   EntityKind = 0x07
	EntityKindReaderGroupUser     EntityKind = 0x09
	EntityKindUnknownBuiltin      EntityKind = 0xc0
	EntityKindParticipantBuiltin  EntityKind = 0xc1
	EntityKindWriterWithKeyBuilt  EntityKind = 0xc2
	EntityKindWriterNoKeyBuiltin  EntityKind = 0xc3
	EntityKindReaderNoKeyBuiltin  EntityKind = 0xc4
	EntityKindReaderWithKeyBuilt  EntityKind = 0xc7
	EntityKindWriterGroupBuiltin  EntityKind = 0xc8
	EntityKindReaderGroupBuiltin  EntityKind = 0xc9
)

// threeLetterCode returns the three-letter abbreviation used when
// formatting a GUID, matching the original implementation's
// utils/entity_kind.rs display table.
func (k EntityKind) threeLetterCode() string {
	switch k {
	case EntityKindUnknownUserDefined:
		return "U-D"
	case EntityKindWriterWithKeyUser:
		return "WKD"
	case EntityKindWriterNoKeyUser:
		return "WND"
	case EntityKindReaderNoKeyUser:
		return "RND"
	case EntityKindReaderWithKeyUser:
		return "RKD"
	case EntityKindWriterGroupUser:
		return "WGD"
	case EntityKindReaderGroupUser:
		return "RGD"
	case EntityKindUnknownBuiltin:
		return "U-B"
	case EntityKindParticipantBuiltin:
		return "P-B"
	case EntityKindWriterWithKeyBuilt:
		return "WKB"
	case EntityKindWriterNoKeyBuiltin:
		return "WNB"
	case EntityKindReaderNoKeyBuiltin:
		return "RNB"
	case EntityKindReaderWithKeyBuilt:
		return "RKB"
	case EntityKindWriterGroupBuiltin:
		return "WGB"
	case EntityKindReaderGroupBuiltin:
		return "RGB"
	default:
		return fmt.Sprintf("%02x", byte(k))
	}
}

// IsWriter reports whether the entity kind denotes a writer (user-defined or
// built-in, keyed or not).
func (k EntityKind) IsWriter() bool {
	switch k {
	case EntityKindWriterWithKeyUser, EntityKindWriterNoKeyUser, EntityKindWriterGroupUser,
		EntityKindWriterWithKeyBuilt, EntityKindWriterNoKeyBuiltin, EntityKindWriterGroupBuiltin:
		return true
	default:
		return false
	}
}

// IsReader reports whether the entity kind denotes a reader.
func (k EntityKind) IsReader() bool {
	switch k {
	case EntityKindReaderNoKeyUser, EntityKindReaderWithKeyUser, EntityKindReaderGroupUser,
		EntityKindReaderNoKeyBuiltin, EntityKindReaderWithKeyBuilt, EntityKindReaderGroupBuiltin:
		return true
	default:
		return false
	}
}

// EntityID is a 4-byte RTPS entity identifier: a 3-byte entity key followed
// by a 1-byte entity kind.
type EntityID [4]byte

// UnknownEntityID is the RTPS ENTITYID_UNKNOWN sentinel.
var UnknownEntityID EntityID

// Well-known builtin entity IDs (SPDP/SEDP), recognized by literal value
// per §4.2 of the design spec.
var (
	EntityIDParticipant                     = EntityID{0x00, 0x00, 0x01, byte(EntityKindParticipantBuiltin)}
	EntityIDSEDPBuiltinTopicWriter          = EntityID{0x00, 0x00, 0x02, byte(EntityKindWriterWithKeyBuilt)}
	EntityIDSEDPBuiltinTopicReader          = EntityID{0x00, 0x00, 0x02, byte(EntityKindReaderWithKeyBuilt)}
	EntityIDSEDPBuiltinPublicationsWriter   = EntityID{0x00, 0x00, 0x03, byte(EntityKindWriterWithKeyBuilt)}
	EntityIDSEDPBuiltinPublicationsReader   = EntityID{0x00, 0x00, 0x03, byte(EntityKindReaderWithKeyBuilt)}
	EntityIDSEDPBuiltinSubscriptionsWriter  = EntityID{0x00, 0x00, 0x04, byte(EntityKindWriterWithKeyBuilt)}
	EntityIDSEDPBuiltinSubscriptionsReader  = EntityID{0x00, 0x00, 0x04, byte(EntityKindReaderWithKeyBuilt)}
	EntityIDSPDPBuiltinParticipantWriter    = EntityID{0x00, 0x01, 0x00, byte(EntityKindWriterWithKeyBuilt)}
	EntityIDSPDPBuiltinParticipantReader    = EntityID{0x00, 0x01, 0x00, byte(EntityKindReaderWithKeyBuilt)}
	EntityIDP2PParticipantMessageWriter     = EntityID{0x00, 0x02, 0x00, byte(EntityKindWriterWithKeyBuilt)}
	EntityIDP2PParticipantMessageReader     = EntityID{0x00, 0x02, 0x00, byte(EntityKindReaderWithKeyBuilt)}
)

var wellKnownNames = map[EntityID]string{
	EntityIDSEDPBuiltinTopicWriter:         "SEDP_BUILTIN_TOPIC_WRITER",
	EntityIDSEDPBuiltinTopicReader:         "SEDP_BUILTIN_TOPIC_READER",
	EntityIDSEDPBuiltinPublicationsWriter:  "SEDP_BUILTIN_PUBLICATIONS_WRITER",
	EntityIDSEDPBuiltinPublicationsReader:  "SEDP_BUILTIN_PUBLICATIONS_READER",
	EntityIDSEDPBuiltinSubscriptionsWriter: "SEDP_BUILTIN_SUBSCRIPTIONS_WRITER",
	EntityIDSEDPBuiltinSubscriptionsReader: "SEDP_BUILTIN_SUBSCRIPTIONS_READER",
	EntityIDSPDPBuiltinParticipantWriter:   "SPDP_BUILTIN_PARTICIPANT_WRITER",
	EntityIDSPDPBuiltinParticipantReader:   "SPDP_BUILTIN_PARTICIPANT_READER",
	EntityIDP2PParticipantMessageWriter:    "P2P_BUILTIN_PARTICIPANT_MESSAGE_WRITER",
	EntityIDP2PParticipantMessageReader:    "P2P_BUILTIN_PARTICIPANT_MESSAGE_READER",
}

// Kind extracts the entity kind (low byte) of the entity ID.
func (e EntityID) Kind() EntityKind { return EntityKind(e[3]) }

// Key extracts the 3-byte entity key.
func (e EntityID) Key() [3]byte { return [3]byte{e[0], e[1], e[2]} }

// IsBuiltinSEDPOrSPDP reports whether e is one of the well-known discovery
// writer/reader entity IDs that carry PL_CDR-encoded discovery payloads.
func (e EntityID) IsBuiltinSEDPOrSPDP() bool {
	_, ok := wellKnownNames[e]
	return ok
}

// String renders the entity ID using its well-known name if recognized,
// otherwise as "<entity-key-as-uint32-hex>|<kind-code>", e.g.
// "00000002|WND". The entity key is zero-extended to 8 hex digits for
// readability; it is a 3-byte field on the wire.
func (e EntityID) String() string {
	if name, ok := wellKnownNames[e]; ok {
		return name
	}
	key := e.Key()
	keyVal := uint32(key[0])<<16 | uint32(key[1])<<8 | uint32(key[2])
	return fmt.Sprintf("%08x|%s", keyVal, e.Kind().threeLetterCode())
}
