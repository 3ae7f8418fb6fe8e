package app

import (
	"context"
	"fmt"
	"io"

	"github.com/JiscSD/cpdlc-channel-adapter/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCmdNetwork(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "network [VATSIM|IVAO|PILOTEDGE|POSCON]",
		Short: "Print or change the network affiliation of the relay account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return doNetwork(out, logger, config, target)
		},
	}
}

func doNetwork(out io.Writer, logger logrus.FieldLogger, config *Config, target string) error {
	c, err := newClient(logger, config)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.InitializeService(ctx); err != nil {
		return err
	}

	current, err := c.GetNetworkAffiliation(ctx)
	if err != nil {
		return err
	}
	if target == "" {
		_, err = fmt.Fprintln(out, current)
		return err
	}

	network, err := session.ParseNetwork(target)
	if err != nil {
		return err
	}
	ok, err := c.ChangeNetworkAffiliation(ctx, network)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("network affiliation not changed to %s", network)
	}
	_, err = fmt.Fprintln(out, network)
	return err
}
