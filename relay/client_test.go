package relay_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JiscSD/cpdlc-channel-adapter/internal/testutil"
	"github.com/JiscSD/cpdlc-channel-adapter/relay"

	"github.com/cenkalti/backoff/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5)
}

func TestClientPost(t *testing.T) {
	r := testutil.NewRelay(t)
	defer r.Stop()
	r.Queue("{ZSHA telex {HELLO}}")
	c := relay.New(logrus.StandardLogger())

	text, err := c.Post(context.Background(), relay.ConnectEndpoint(r.URL), &relay.ConnectRequest{
		Logon: r.LogonCode,
		From:  "CES2352",
		To:    relay.ControlStation,
		Type:  "poll",
	})

	require.NoError(t, err)
	assert.Equal(t, "ok {ZSHA telex {HELLO}}", text)
	reqs := r.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "CES2352", reqs[0].Get("from"))
	assert.Equal(t, "SERVER", reqs[0].Get("to"))
	_, hasPacket := reqs[0]["packet"]
	assert.False(t, hasPacket, "empty packet is omitted")
}

func TestClientRetries(t *testing.T) {
	tests := map[string]struct {
		packetType string
		status     int
		wantCalls  int32
		wantErr    bool
	}{
		"Poll is retried on server errors": {
			packetType: "poll",
			status:     http.StatusBadGateway,
			wantCalls:  3,
		},
		"Telex is not retried": {
			packetType: "telex",
			status:     http.StatusBadGateway,
			wantCalls:  1,
			wantErr:    true,
		},
		"Client errors are permanent": {
			packetType: "ping",
			status:     http.StatusNotFound,
			wantCalls:  1,
			wantErr:    true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if atomic.AddInt32(&calls, 1) < 3 {
					w.WriteHeader(tc.status)
					return
				}
				fmt.Fprint(w, "ok")
			}))
			defer ts.Close()
			c := relay.New(logrus.StandardLogger(), relay.SetBackOff(noWait), relay.SetRateLimit(1000, 10))

			text, err := c.Post(context.Background(), relay.ConnectEndpoint(ts.URL), &relay.ConnectRequest{Type: tc.packetType})

			assert.Equal(t, tc.wantCalls, atomic.LoadInt32(&calls))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", text)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer ts.Close()
	c := relay.New(logrus.StandardLogger(), relay.SetTimeout(10*time.Millisecond))

	_, err := c.Post(context.Background(), relay.ConnectEndpoint(ts.URL), &relay.ConnectRequest{Type: "telex"})

	assert.Error(t, err)
}

func TestClientCancelledContext(t *testing.T) {
	c := relay.New(logrus.StandardLogger(), relay.SetBackOff(noWait))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Post(ctx, relay.ConnectEndpoint("http://127.0.0.1:1"), &relay.ConnectRequest{Type: "poll"})

	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "http://www.hoppie.nl/acars/system/connect.html", relay.ConnectEndpoint(relay.OfficialURL))
	assert.Equal(t, "http://localhost/acars/account.html", relay.AccountEndpoint("http://localhost/acars/"))
}

func TestConnectRequestIdempotent(t *testing.T) {
	for typ, want := range map[string]bool{"ping": true, "poll": true, "peek": true, "telex": false, "cpdlc": false, "inforeq": false} {
		assert.Equal(t, want, (&relay.ConnectRequest{Type: typ}).Idempotent(), typ)
	}
}
