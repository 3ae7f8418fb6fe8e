package session

import (
	"fmt"
	"strings"
)

// ConnectionState of the CPDLC session.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Disconnecting:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// ServiceLevel is the capability tier of the session. Account management
// requires the full service, which in turn requires an email address.
type ServiceLevel int

const (
	ServiceNone ServiceLevel = iota
	ServiceHalf
	ServiceFull
)

func (l ServiceLevel) String() string {
	switch l {
	case ServiceHalf:
		return "HALF"
	case ServiceFull:
		return "FULL"
	default:
		return "NONE"
	}
}

// Network is the flight simulation network the relay account is affiliated
// with.
type Network string

const (
	NetworkVATSIM     Network = "VATSIM"
	NetworkIVAO       Network = "IVAO"
	NetworkPilotEdge  Network = "PILOTEDGE"
	NetworkPOSCON     Network = "POSCON"
	NetworkUnofficial Network = "UNOFFICIAL"
)

// ParseNetwork returns the Network named s, ignoring case.
func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToUpper(strings.TrimSpace(s))); n {
	case NetworkVATSIM, NetworkIVAO, NetworkPilotEdge, NetworkPOSCON, NetworkUnofficial:
		return n, nil
	}
	return "", fmt.Errorf("unknown network %q", s)
}

// InfoType is the kind of information requested from the relay.
type InfoType string

const (
	InfoMETAR         InfoType = "metar"
	InfoTAF           InfoType = "taf"
	InfoShortTAF      InfoType = "shorttaf"
	InfoVatsimATIS    InfoType = "vatatis"
	InfoPilotEdgeATIS InfoType = "peatis"
	InfoIvaoATIS      InfoType = "ivaoatis"
)

// ParseInfoType returns the InfoType named s, ignoring case.
func ParseInfoType(s string) (InfoType, error) {
	switch t := InfoType(strings.ToLower(s)); t {
	case InfoMETAR, InfoTAF, InfoShortTAF, InfoVatsimATIS, InfoPilotEdgeATIS, InfoIvaoATIS:
		return t, nil
	}
	return "", fmt.Errorf("unknown info type %q", s)
}
