package session

import (
	"regexp"
	"strings"

	"github.com/JiscSD/cpdlc-channel-adapter/message"
	"github.com/JiscSD/cpdlc-channel-adapter/relay"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// atcInfoPattern matches "CURRENT ATC UNIT@_@ZSHA@_@SHANGHAI CTR" and the
// whitespace separated form.
var atcInfoPattern = regexp.MustCompile(`^CURRENT ATC UNIT(?:@_@|\s)+(\w+)(?:@_@|\s)+([^@]*[^@\s])`)

// poll fetches the pending traffic and feeds it through the inbound handler.
// It runs on the poller goroutine.
func (c *Client) poll() error {
	text, err := c.send(c.pollContext(), relay.ControlStation, message.PacketTypePoll, "")
	if err != nil {
		c.metrics.PollFailures.Inc()
		return err
	}
	if err := responseError(text); err != nil {
		c.metrics.PollFailures.Inc()
		return err
	}
	envs, err := message.Parse(text)
	if err != nil {
		c.metrics.PollFailures.Inc()
		return errors.Wrap(err, "poll response")
	}

	for _, env := range envs {
		c.logger.WithFields(logrus.Fields{
			"station": env.Station,
			"type":    env.Type,
			"hash":    env.Hash(),
		}).Debug("Envelope received")
		c.metrics.received(env)
		if err := c.handleInbound(env); err != nil {
			c.logger.WithError(err).WithField("station", env.Station).Warn("Inbound message not applied")
		}
		c.inbound.Notify(env)
	}

	return nil
}

// handleInbound applies the session control messages carried by CPDLC
// envelopes. Other envelopes are ignored.
func (c *Client) handleInbound(env *message.Envelope) error {
	if env.CPDLC == nil {
		return nil
	}
	c.seq.Observe(env.CPDLC.MessageID)

	text := strings.TrimSpace(env.Payload)
	switch {
	case text == "LOGON ACCEPTED":
		c.acceptLogon(env.Station)
	case strings.HasPrefix(text, "CURRENT ATC UNIT"):
		m := atcInfoPattern.FindStringSubmatch(text)
		if m == nil {
			return errors.Wrapf(ErrResponseParser, "atc info %q", text)
		}
		c.updateATCInfo(m[1], m[2])
	case text == logoffText:
		return c.completeLogout()
	}

	return nil
}

func (c *Client) acceptLogon(station string) {
	c.mu.Lock()
	if c.state != Connecting {
		state := c.state
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{"station": station, "state": state}).Warn("Unexpected logon acceptance ignored")
		return
	}
	c.setState(Connected)
	unit := c.atcUnit
	c.mu.Unlock()

	c.logger.WithField("station", unit).Info("CPDLC connected")
	c.connected.Notify()
}

func (c *Client) updateATCInfo(unit, callsign string) {
	c.mu.Lock()
	if c.state != Connecting && c.state != Connected {
		state := c.state
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{"unit": unit, "state": state}).Warn("ATC unit update ignored")
		return
	}
	c.atcUnit = unit
	c.atcCallsign = callsign
	c.setState(Connected)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{"unit": unit, "callsign": callsign}).Info("ATC unit updated")
	c.atcInfo.Notify()
}

// completeLogout closes the session locally. It fails with ErrNotLogin when
// there is no session to close.
func (c *Client) completeLogout() error {
	c.mu.Lock()
	if c.state != Connected && c.state != Disconnecting {
		state := c.state
		c.mu.Unlock()
		return errors.Wrapf(ErrNotLogin, "state %s", state)
	}
	unit := c.atcUnit
	c.clearSession()
	c.mu.Unlock()

	c.logger.WithField("station", unit).Info("CPDLC disconnected")
	c.disconnected.Notify()

	return nil
}
