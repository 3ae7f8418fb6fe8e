package session

// guard is a precondition evaluated with c.mu held.
type guard func(c *Client) error

func serviceInitialized(c *Client) error {
	if !c.initialized {
		return ErrNoInitialization
	}
	return nil
}

func callsignSet(c *Client) error {
	if c.callsign == "" {
		return ErrCallsign
	}
	return nil
}

func fullService(c *Client) error {
	if c.level != ServiceFull {
		return ErrFullServiceRequired
	}
	return nil
}

func officialRelay(c *Client) error {
	if !c.isOfficialRelay() {
		return ErrNoOfficialServer
	}
	return nil
}

func inState(states ...ConnectionState) guard {
	return func(c *Client) error {
		for _, s := range states {
			if c.state == s {
				return nil
			}
		}
		return &InvalidStateError{Required: states, Current: c.state}
	}
}

// check evaluates guards in order and returns the first failure.
func (c *Client) check(guards ...guard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range guards {
		if err := g(c); err != nil {
			return err
		}
	}
	return nil
}
