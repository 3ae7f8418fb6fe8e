package session

import (
	"context"

	"github.com/JiscSD/cpdlc-channel-adapter/relay"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func (c *Client) accountRequest(network Network) (string, *relay.AccountRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return relay.AccountEndpoint(c.endpoint), &relay.AccountRequest{
		Email:   c.email,
		Logon:   c.logonCode,
		Network: string(network),
	}
}

// GetNetworkAffiliation reads the network selected in the relay account.
// Unofficial relays have no account page and report NetworkUnofficial.
func (c *Client) GetNetworkAffiliation(ctx context.Context) (Network, error) {
	if !c.IsOfficialRelay() {
		return NetworkUnofficial, nil
	}
	if err := c.check(fullService); err != nil {
		return "", err
	}

	endpoint, req := c.accountRequest("")
	page, err := c.relay.Post(ctx, endpoint, req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	name, ok := relay.ParseSelectedNetwork(page)
	if !ok {
		return "", ErrLogin
	}
	network, err := ParseNetwork(name)
	if err != nil {
		return "", errors.Wrap(ErrResponseParser, err.Error())
	}

	c.mu.Lock()
	c.network = network
	c.mu.Unlock()

	return network, nil
}

// ChangeNetworkAffiliation selects another network in the relay account.
// Selecting the current network is a no-op.
func (c *Client) ChangeNetworkAffiliation(ctx context.Context, target Network) (bool, error) {
	if err := c.check(serviceInitialized, fullService, officialRelay); err != nil {
		return false, err
	}
	if _, err := ParseNetwork(string(target)); err != nil || target == NetworkUnofficial {
		return false, errors.Wrapf(ErrParameter, "network %q", target)
	}

	current := c.Network()
	if current == target {
		c.logger.WithField("network", target).Warn("Already affiliated with network")
		return true, nil
	}

	endpoint, req := c.accountRequest(target)
	page, err := c.relay.Post(ctx, endpoint, req)
	if err != nil {
		return false, &NetworkError{Err: err}
	}
	notice, ok := relay.ParseNotice(page)
	if !ok {
		return false, errors.Wrap(ErrResponseParser, "no notice in account page")
	}
	if got := relay.NoticeNetwork(notice); got != string(target) {
		return false, &NetworkSwitchError{From: current, To: target, Got: got}
	}

	c.mu.Lock()
	c.network = target
	c.mu.Unlock()
	c.logger.WithFields(logrus.Fields{"from": current, "to": target}).Info("Network affiliation changed")

	return true, nil
}
