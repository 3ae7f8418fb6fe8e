// Package session implements the CPDLC session engine: the service lifecycle,
// the logon state machine, the operations exposed to the pilot and the
// handling of polled traffic.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/JiscSD/cpdlc-channel-adapter/dispatch"
	"github.com/JiscSD/cpdlc-channel-adapter/message"
	"github.com/JiscSD/cpdlc-channel-adapter/poller"
	"github.com/JiscSD/cpdlc-channel-adapter/relay"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Relay delivers forms to the relay and returns the response body.
// *relay.Client implements it.
type Relay interface {
	Post(ctx context.Context, endpoint string, form interface{}) (string, error)
}

var _ Relay = (*relay.Client)(nil)

// Client is a CPDLC session against one relay.
//
// Operations are safe for concurrent use. The poll cycle runs on its own
// goroutine and observers are invoked through a bounded worker pool, so an
// observer may call back into the Client.
type Client struct {
	logger  logrus.FieldLogger
	relay   Relay
	seq     *message.Sequencer
	poller  *poller.Poller
	pool    *dispatch.Pool
	metrics *Metrics
	workers int

	inbound      *dispatch.Inbound
	outbound     *dispatch.Outbound
	connected    *dispatch.Signal
	disconnected *dispatch.Signal
	atcInfo      *dispatch.Signal

	// lifecycle serializes InitializeService and ResetService.
	lifecycle sync.Mutex

	mu          sync.Mutex
	callsign    string
	logonCode   string
	email       string
	endpoint    string
	officialURL string
	initialized bool
	level       ServiceLevel
	state       ConnectionState
	atcUnit     string
	atcCallsign string
	network     Network
	pollCtx     context.Context
	pollCancel  context.CancelFunc
}

// Option configures a Client.
type Option func(*Client)

// SetWorkers bounds the number of observers running concurrently.
func SetWorkers(n int) Option {
	return func(c *Client) {
		c.workers = n
	}
}

// SetMetrics replaces the default, unregistered, collectors.
func SetMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New returns an uninitialized Client talking to the official relay.
func New(logger logrus.FieldLogger, r Relay, options ...Option) *Client {
	c := &Client{
		logger:      logger,
		relay:       r,
		seq:         message.NewSequencer(),
		metrics:     NewMetrics(),
		workers:     dispatch.DefaultWorkers,
		endpoint:    relay.OfficialURL,
		officialURL: relay.OfficialURL,
		network:     NetworkUnofficial,
	}

	for _, opt := range options {
		opt(c)
	}

	c.pool = dispatch.NewPool(logger, c.workers, c.metrics.CallbackFailures)
	c.inbound = dispatch.NewInbound(c.pool)
	c.outbound = dispatch.NewOutbound(c.pool)
	c.connected = dispatch.NewSignal("connect", c.pool)
	c.disconnected = dispatch.NewSignal("disconnect", c.pool)
	c.atcInfo = dispatch.NewSignal("atc-info", c.pool)
	c.poller = poller.New(logger, c.poll)

	return c
}

func (c *Client) SetCallsign(callsign string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callsign = strings.ToUpper(strings.TrimSpace(callsign))
}

func (c *Client) SetLogonCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logonCode = strings.TrimSpace(code)
}

// SetEmail sets the account email. An initialized half service is upgraded
// to the full service.
func (c *Client) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = strings.TrimSpace(email)
	if c.initialized && c.email != "" && c.level == ServiceHalf {
		c.level = ServiceFull
		c.logger.Info("Email set, service upgraded to full")
	}
}

// SetRelayEndpoint sets the base URL of the relay, e.g.
// "http://www.hoppie.nl/acars/system".
func (c *Client) SetRelayEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// SetPollInterval sets the bounds, in seconds, of the delay between polls.
func (c *Client) SetPollInterval(min, max int) error {
	return c.poller.SetInterval(min, max)
}

func (c *Client) Callsign() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callsign
}

func (c *Client) LogonCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logonCode
}

func (c *Client) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

func (c *Client) RelayEndpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *Client) ServiceLevel() ServiceLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentATCUnit is the station the session is logged on to, or being
// logged on to.
func (c *Client) CurrentATCUnit() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.atcUnit
}

func (c *Client) ATCCallsign() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.atcCallsign
}

// Network returns the last known network affiliation.
func (c *Client) Network() Network {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.network
}

// IsOfficialRelay reports whether the endpoint is the official relay.
func (c *Client) IsOfficialRelay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOfficialRelay()
}

func (c *Client) isOfficialRelay() bool {
	return strings.EqualFold(c.endpoint, c.officialURL)
}

func (c *Client) RegisterInboundObserver(fn dispatch.InboundObserver) {
	c.inbound.Register(fn)
}

func (c *Client) RegisterOutboundObserver(fn dispatch.OutboundObserver) {
	c.outbound.Register(fn)
}

func (c *Client) RegisterConnectCallback(fn dispatch.Callback) {
	c.connected.Register(fn)
}

func (c *Client) RegisterDisconnectCallback(fn dispatch.Callback) {
	c.disconnected.Register(fn)
}

func (c *Client) RegisterATCInfoCallback(fn dispatch.Callback) {
	c.atcInfo.Register(fn)
}

// InitializeService checks the credentials against the relay and starts
// polling. It is a no-op when the service is already initialized.
func (c *Client) InitializeService(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		c.logger.Warn("Service already initialized")
		return nil
	}
	if c.callsign == "" {
		c.mu.Unlock()
		return errors.Wrap(ErrParameter, "callsign")
	}
	if c.logonCode == "" {
		c.mu.Unlock()
		return errors.Wrap(ErrParameter, "logon code")
	}
	c.mu.Unlock()

	ok, err := c.ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInitialization
	}

	c.mu.Lock()
	if c.email == "" {
		c.level = ServiceHalf
	} else {
		c.level = ServiceFull
	}
	c.initialized = true
	c.pollCtx, c.pollCancel = context.WithCancel(context.Background())
	level := c.level
	c.mu.Unlock()

	c.poller.Start()
	c.logger.WithField("level", level).Info("Service initialized")

	return nil
}

// ResetService stops polling and clears the service level. A CPDLC session
// still open is dropped locally without notifying the station.
func (c *Client) ResetService() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		c.logger.Warn("Service not initialized, nothing to reset")
		return
	}
	if c.pollCancel != nil {
		c.pollCancel()
	}
	c.mu.Unlock()

	c.poller.Stop()

	c.mu.Lock()
	c.initialized = false
	c.level = ServiceNone
	dropped := c.state != Disconnected
	if dropped {
		c.logger.WithField("state", c.state).Warn("Dropping CPDLC session on reset")
		c.clearSession()
	}
	c.mu.Unlock()

	if dropped {
		c.disconnected.Notify()
	}
	c.logger.Info("Service reset")
}

// ReinitializeService resets the service and initializes it again.
func (c *Client) ReinitializeService(ctx context.Context) error {
	c.ResetService()
	return c.InitializeService(ctx)
}

// Close resets the service and waits for running observers.
func (c *Client) Close() {
	if c.Initialized() {
		c.ResetService()
	}
	c.pool.Wait()
}

// setState must be called with c.mu held.
func (c *Client) setState(s ConnectionState) {
	c.state = s
	c.metrics.ConnectionState.Set(float64(s))
}

// clearSession must be called with c.mu held.
func (c *Client) clearSession() {
	c.setState(Disconnected)
	c.atcUnit = ""
	c.atcCallsign = ""
}

func (c *Client) pollContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollCtx == nil {
		return context.Background()
	}
	return c.pollCtx
}

// send delivers one packet through connect.html.
func (c *Client) send(ctx context.Context, to string, t message.PacketType, packet string) (string, error) {
	c.mu.Lock()
	endpoint := relay.ConnectEndpoint(c.endpoint)
	req := &relay.ConnectRequest{
		Logon:  c.logonCode,
		From:   c.callsign,
		To:     to,
		Type:   string(t),
		Packet: packet,
	}
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{"to": to, "type": t}).Debug("Sending packet")
	text, err := c.relay.Post(ctx, endpoint, req)
	if err != nil {
		c.logger.WithError(err).WithField("type", t).Error("Relay request failed")
		return "", &NetworkError{Err: err}
	}
	c.metrics.sent(t)

	return text, nil
}

// responseError interprets an "error {...}" relay response.
func responseError(text string) error {
	if !strings.HasPrefix(strings.ToLower(text), "error") {
		return nil
	}
	if strings.Contains(strings.ToLower(text), "invalid logon code") {
		return ErrLogin
	}
	return errors.Wrap(ErrResponseParser, text)
}

func isOK(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "ok")
}
