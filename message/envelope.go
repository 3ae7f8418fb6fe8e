package message

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PacketType is the type field of a relay envelope.
type PacketType string

const (
	PacketTypePing     PacketType = "ping"
	PacketTypePoll     PacketType = "poll"
	PacketTypePeek     PacketType = "peek"
	PacketTypeTelex    PacketType = "telex"
	PacketTypeCPDLC    PacketType = "cpdlc"
	PacketTypeInfoReq  PacketType = "inforeq"
	PacketTypeProgress PacketType = "progress"
	PacketTypePosition PacketType = "position"
	PacketTypePosReq   PacketType = "posreq"
	PacketTypeDataReq  PacketType = "datareq"
	PacketTypeADSC     PacketType = "ads-c"
)

var packetTypes = map[string]PacketType{
	string(PacketTypePing):     PacketTypePing,
	string(PacketTypePoll):     PacketTypePoll,
	string(PacketTypePeek):     PacketTypePeek,
	string(PacketTypeTelex):    PacketTypeTelex,
	string(PacketTypeCPDLC):    PacketTypeCPDLC,
	string(PacketTypeInfoReq):  PacketTypeInfoReq,
	string(PacketTypeProgress): PacketTypeProgress,
	string(PacketTypePosition): PacketTypePosition,
	string(PacketTypePosReq):   PacketTypePosReq,
	string(PacketTypeDataReq):  PacketTypeDataReq,
	string(PacketTypeADSC):     PacketTypeADSC,
}

// ParsePacketType returns the PacketType matching the wire value, ignoring
// case. Unknown values are rejected.
func ParsePacketType(s string) (PacketType, error) {
	t, ok := packetTypes[strings.ToLower(s)]
	if !ok {
		return "", fmt.Errorf("unknown packet type %q", s)
	}
	return t, nil
}

func (t PacketType) String() string {
	return strings.ToUpper(string(t))
}

// Direction tells whether an envelope was received or sent.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Envelope is one unit of relay traffic. CPDLC is only set when Type is
// PacketTypeCPDLC.
type Envelope struct {
	Station   string
	Type      PacketType
	Direction Direction
	Payload   string
	Timestamp time.Time

	CPDLC *CPDLC
}

// NewEnvelope returns an envelope stamped with the current time.
func NewEnvelope(station string, t PacketType, payload string, d Direction) *Envelope {
	return &Envelope{
		Station:   station,
		Type:      t,
		Direction: d,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Hash is a digest of station, payload and timestamp used to correlate log
// entries and drop duplicates. It is not meant for security purposes.
func (e *Envelope) Hash() string {
	ts := strconv.FormatInt(e.Timestamp.UnixNano(), 10)
	sum := md5.Sum([]byte(e.Station + e.Payload + ts))
	return hex.EncodeToString(sum[:])
}

// IsCPDLC reports whether the envelope carries a CPDLC record.
func (e *Envelope) IsCPDLC() bool {
	return e.CPDLC != nil
}

func (e *Envelope) String() string {
	if e.CPDLC != nil {
		return fmt.Sprintf("Envelope{from=%s, type=%s, %s, payload=%s}", e.Station, e.Type, e.CPDLC, e.Payload)
	}
	return fmt.Sprintf("Envelope{from=%s, type=%s, payload=%s}", e.Station, e.Type, e.Payload)
}
