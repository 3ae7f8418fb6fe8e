package session

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JiscSD/cpdlc-channel-adapter/message"
	"github.com/JiscSD/cpdlc-channel-adapter/relay"

	"github.com/pkg/errors"
)

const (
	logonText  = "REQUEST LOGON"
	logoffText = "LOGOFF"

	// maxTelexLength is the conventional limit of a telex, in characters.
	// It is not enforced by the relay.
	maxTelexLength = 220
)

// ping probes the relay with the current credentials.
func (c *Client) ping(ctx context.Context) (bool, error) {
	text, err := c.send(ctx, relay.ControlStation, message.PacketTypePing, "")
	if err != nil {
		return false, err
	}
	if isOK(text) {
		return true, nil
	}
	if err := responseError(text); errors.Is(err, ErrLogin) {
		return false, err
	}
	c.logger.WithField("response", text).Error("Unexpected ping response")
	return false, nil
}

// Login requests a CPDLC logon to station. The session stays CONNECTING
// until the station accepts the logon. The boolean reports whether the relay
// accepted the request.
func (c *Client) Login(ctx context.Context, station string) (bool, error) {
	if err := c.check(serviceInitialized, callsignSet); err != nil {
		return false, err
	}
	station = strings.ToUpper(strings.TrimSpace(station))
	if station == "" {
		return false, errors.Wrap(ErrParameter, "station")
	}

	c.mu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.mu.Unlock()
		return false, errors.Wrapf(ErrAlreadyLogin, "state %s", state)
	}
	c.setState(Connecting)
	c.atcUnit = station
	c.mu.Unlock()

	c.logger.WithField("station", station).Info("Requesting CPDLC logon")
	packet := message.FormatPayload(c.seq.Next(), 0, message.ReplyTagRequired, logonText)
	text, err := c.send(ctx, station, message.PacketTypeCPDLC, packet)
	if err != nil {
		c.mu.Lock()
		if c.state == Connecting && c.atcUnit == station {
			c.clearSession()
		}
		c.mu.Unlock()
		return false, err
	}
	c.outbound.Notify(station, logonText)

	return isOK(text), nil
}

// Logout sends a LOGOFF to the current station. The session is closed
// locally whatever the outcome of the request.
func (c *Client) Logout(ctx context.Context) (bool, error) {
	if err := c.check(serviceInitialized, callsignSet); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.state != Connected {
		state := c.state
		c.mu.Unlock()
		return false, errors.Wrapf(ErrNotLogin, "state %s", state)
	}
	c.setState(Disconnecting)
	station := c.atcUnit
	c.mu.Unlock()

	c.logger.WithField("station", station).Info("Logging off")
	packet := message.FormatPayload(c.seq.Next(), 0, message.ReplyTagNotRequired, logoffText)
	text, err := c.send(ctx, station, message.PacketTypeCPDLC, packet)
	if err == nil {
		c.outbound.Notify(station, logoffText)
	}
	if lerr := c.completeLogout(); lerr != nil {
		c.logger.WithError(lerr).Debug("Session already closed")
	}
	if err != nil {
		return false, err
	}

	return isOK(text), nil
}

// ReplyMessage answers a received CPDLC message. status selects the positive
// or negative answer allowed by the message's reply tag.
func (c *Client) ReplyMessage(ctx context.Context, env *message.Envelope, status bool) (bool, error) {
	if err := c.check(serviceInitialized, callsignSet, inState(Connected)); err != nil {
		return false, err
	}
	if env == nil || env.CPDLC == nil {
		return false, errors.Wrap(message.ErrCantReply, "not a cpdlc message")
	}

	packet, err := env.CPDLC.Reply(c.seq, status)
	if err != nil {
		return false, err
	}
	text, err := c.send(ctx, env.Station, message.PacketTypeCPDLC, packet)
	if err != nil {
		return false, err
	}
	c.outbound.Notify(env.Station, message.ReplyTextOf(packet))

	return isOK(text), nil
}

// QueryInfo requests information about an airport. The relay answers with
// exactly one envelope, which is also delivered to the inbound observers.
func (c *Client) QueryInfo(ctx context.Context, t InfoType, icao string) (*message.Envelope, error) {
	if err := c.check(serviceInitialized, callsignSet); err != nil {
		return nil, err
	}
	icao = strings.ToUpper(strings.TrimSpace(icao))
	if icao == "" {
		return nil, errors.Wrap(ErrParameter, "icao")
	}

	text, err := c.send(ctx, relay.ControlStation, message.PacketTypeInfoReq, fmt.Sprintf("%s %s", t, icao))
	if err != nil {
		return nil, err
	}
	if err := responseError(text); err != nil {
		return nil, err
	}
	envs, err := message.Parse(text)
	if err != nil {
		return nil, errors.Wrap(ErrResponseParser, err.Error())
	}
	if len(envs) != 1 {
		return nil, errors.Wrapf(ErrResponseParser, "expected one envelope, got %d", len(envs))
	}
	env := envs[0]
	c.metrics.received(env)
	c.inbound.Notify(env)

	return env, nil
}

// SendTelex sends a free text message to station.
func (c *Client) SendTelex(ctx context.Context, station, text string) (bool, error) {
	if err := c.check(serviceInitialized, callsignSet); err != nil {
		return false, err
	}
	station = strings.ToUpper(strings.TrimSpace(station))
	if station == "" {
		return false, errors.Wrap(ErrParameter, "station")
	}
	if n := utf8.RuneCountInString(text); n > maxTelexLength {
		c.logger.WithField("length", n).Warn("Telex longer than the conventional limit")
	}

	resp, err := c.send(ctx, station, message.PacketTypeTelex, text)
	if err != nil {
		return false, err
	}
	c.outbound.Notify(station, text)

	return isOK(resp), nil
}

// DepartureClearanceDelivery sends a pre-departure clearance request telex.
func (c *Client) DepartureClearanceDelivery(ctx context.Context, station, aircraftType, destination, departure, stand, atis string) (bool, error) {
	if err := c.check(serviceInitialized, callsignSet); err != nil {
		return false, err
	}
	text := fmt.Sprintf("REQUEST PREDEP CLEARANCE %s %s TO %s AT %s STAND %s ATIS %s",
		c.Callsign(),
		strings.ToUpper(aircraftType),
		strings.ToUpper(destination),
		strings.ToUpper(departure),
		strings.ToUpper(stand),
		strings.ToUpper(atis),
	)
	return c.SendTelex(ctx, station, text)
}
