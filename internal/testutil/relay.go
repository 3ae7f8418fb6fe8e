package testutil

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Relay is a fake ACARS relay serving connect.html and account.html.
type Relay struct {
	URL       string
	LogonCode string
	Email     string

	ln net.Listener

	t    *testing.T
	stop chan chan struct{}

	mu       sync.Mutex
	requests []url.Values
	inbox    []string
	network  string
}

// NewRelay starts a fake relay listening on a random local port.
func NewRelay(t *testing.T) *Relay {
	r := &Relay{
		LogonCode: "secret",
		Email:     "pilot@example.com",
		t:         t,
		stop:      make(chan chan struct{}),
		network:   "VATSIM",
	}

	ln, err := net.Listen("tcp4", "localhost:")
	if err != nil {
		r.t.Fatal("Cannot create network listener:", err)
	}
	r.ln = ln
	r.URL = fmt.Sprintf("http://%s/acars/system", ln.Addr().String())

	go r.createServer()
	go r.loop()

	return r
}

func (r *Relay) createServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/acars/system/connect.html", r.connect)
	mux.HandleFunc("/acars/system/account.html", r.account)
	err := http.Serve(r.ln, mux)
	if err != nil {
		r.t.Log("Relay server is now closed:", err)
	}
}

func (r *Relay) connect(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req.PostForm)

	if req.PostForm.Get("logon") != r.LogonCode {
		fmt.Fprint(w, "error {invalid logon code}")
		return
	}
	switch req.PostForm.Get("type") {
	case "poll":
		fmt.Fprint(w, strings.TrimSpace("ok "+strings.Join(r.inbox, " ")))
		r.inbox = nil
	case "inforeq":
		fmt.Fprintf(w, "ok {SERVER inforeq {%s NIL}}", strings.ToUpper(req.PostForm.Get("packet")))
	default:
		fmt.Fprint(w, "ok")
	}
}

func (r *Relay) account(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req.PostForm)

	if req.PostForm.Get("logon") != r.LogonCode || req.PostForm.Get("email") != r.Email {
		fmt.Fprint(w, "<html><body><p>Unknown account.</p></body></html>")
		return
	}
	var notice string
	if n := req.PostForm.Get("network"); n != "" {
		r.network = n
		notice = fmt.Sprintf(`<p class="notice">Your network has been changed to %s.</p>`, n)
	}
	fmt.Fprint(w, "<html><body>", notice, `<form><select name="network">`)
	for _, n := range []string{"VATSIM", "IVAO", "PILOTEDGE", "POSCON"} {
		if n == r.network {
			fmt.Fprintf(w, `<option selected>%s</option>`, n)
			continue
		}
		fmt.Fprintf(w, `<option>%s</option>`, n)
	}
	fmt.Fprint(w, "</select></form></body></html>")
}

// Queue adds envelopes that the next poll request will return.
func (r *Relay) Queue(envelopes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox = append(r.inbox, envelopes...)
}

// Requests returns the forms received so far.
func (r *Relay) Requests() []url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]url.Values, len(r.requests))
	copy(out, r.requests)
	return out
}

// RequestsOfType returns the connect.html forms of a given packet type.
func (r *Relay) RequestsOfType(t string) []url.Values {
	var out []url.Values
	for _, form := range r.Requests() {
		if form.Get("type") == t {
			out = append(out, form)
		}
	}
	return out
}

// Network returns the network currently selected in the account.
func (r *Relay) Network() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.network
}

func (r *Relay) loop() {
	ch := <-r.stop
	r.ln.Close()
	close(ch)
}

// Stop closes the listener.
func (r *Relay) Stop() {
	ch := make(chan struct{})
	r.stop <- ch
	<-ch
}
