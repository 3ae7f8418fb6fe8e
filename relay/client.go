// Package relay is the HTTP transport used to reach an ACARS relay.
//
// Requests are plain structs encoded as form fields. The client throttles
// requests and retries the idempotent ones (ping, poll, peek) on transport
// errors and server errors.
package relay

import (
	"context"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JiscSD/cpdlc-channel-adapter/version"

	"github.com/cenkalti/backoff/v3"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// OfficialURL is the base URL of the public relay.
const OfficialURL = "http://www.hoppie.nl/acars/system"

const (
	// DefaultTimeout bounds every HTTP exchange.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond and DefaultBurst throttle the client.
	DefaultRequestsPerSecond = 2
	DefaultBurst             = 4
)

// Client posts form requests to the relay and returns the response text.
type Client struct {
	logger  logrus.FieldLogger
	client  *http.Client
	encoder *schema.Encoder
	limiter *rate.Limiter
	agent   string

	// newBackOff returns the retry strategy of idempotent requests.
	newBackOff func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// SetTimeout replaces the timeout of the HTTP client.
func SetTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// SetRateLimit replaces the request throttling.
func SetRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// SetBackOff replaces the retry strategy of idempotent requests.
func SetBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func SetHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New returns a usable Client.
func New(logger logrus.FieldLogger, options ...Option) *Client {
	const (
		dialTimeout      = 5 * time.Second
		handshakeTimeout = 5 * time.Second
	)
	c := &Client{
		logger: logger,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
				TLSHandshakeTimeout: handshakeTimeout,
			},
		},
		encoder:    schema.NewEncoder(),
		limiter:    rate.NewLimiter(DefaultRequestsPerSecond, DefaultBurst),
		newBackOff: defaultBackOff,
		agent:      version.UserAgent(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          1.5,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      20 * time.Second,
		Clock:               backoff.SystemClock,
	}
}

// idempotent is implemented by requests that can be safely retried.
type idempotent interface {
	Idempotent() bool
}

// Post encodes form and delivers it to endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, form interface{}) (string, error) {
	values := url.Values{}
	if err := c.encoder.Encode(form, values); err != nil {
		return "", errors.Wrap(err, "error encoding the request")
	}

	op := func() (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		return c.do(ctx, endpoint, values)
	}

	if r, ok := form.(idempotent); !ok || !r.Idempotent() {
		text, err := op()
		if perm, ok := err.(*backoff.PermanentError); ok {
			err = perm.Err
		}
		return text, err
	}

	var text string
	err := backoff.Retry(func() error {
		var err error
		text, err = op()
		if err != nil {
			c.logger.WithField("endpoint", endpoint).Debugf("Relay request failed: %v", err)
		}
		return err
	}, backoff.WithContext(c.newBackOff(), ctx))
	if perm, ok := err.(*backoff.PermanentError); ok {
		err = perm.Err
	}
	return text, err
}

func (c *Client) do(ctx context.Context, endpoint string, values url.Values) (string, error) {
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "error creating request"))
	}
	req = req.WithContext(ctx)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("User-Agent", c.agent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	blob, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading the response body")
	}

	switch {
	// Give up right away on client errors.
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", backoff.Permanent(fmt.Errorf("%s (client error)", http.StatusText(resp.StatusCode)))
	// Retry on server errors.
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%s (server error)", http.StatusText(resp.StatusCode))
	}

	return strings.TrimSpace(string(blob)), nil
}
