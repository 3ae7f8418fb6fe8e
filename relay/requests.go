package relay

import "strings"

const (
	connectPath = "/connect.html"
	accountPath = "/account.html"

	// ControlStation is the relay's own station, target of pings, polls and
	// information requests.
	ControlStation = "SERVER"
)

// ConnectEndpoint returns the URL of the message exchange page.
func ConnectEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + connectPath
}

// AccountEndpoint returns the URL of the account management page.
func AccountEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + accountPath
}

// ConnectRequest is the form posted to the message exchange page.
type ConnectRequest struct {
	Logon  string `schema:"logon"`
	From   string `schema:"from"`
	To     string `schema:"to"`
	Type   string `schema:"type"`
	Packet string `schema:"packet,omitempty"`
}

// Idempotent reports whether the request can be delivered twice without
// side effects on the relay.
func (r *ConnectRequest) Idempotent() bool {
	switch r.Type {
	case "ping", "poll", "peek":
		return true
	}
	return false
}

// AccountRequest is the form posted to the account management page.
type AccountRequest struct {
	Email   string `schema:"email"`
	Logon   string `schema:"logon"`
	Network string `schema:"network,omitempty"`
}
