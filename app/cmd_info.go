package app

import (
	"context"
	"fmt"
	"io"

	"github.com/JiscSD/cpdlc-channel-adapter/session"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCmdInfo(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info <metar|taf|shorttaf|vatatis|peatis|ivaoatis> <icao>",
		Short: "Request airport information from the relay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doInfo(out, logger, config, args[0], args[1])
		},
	}
}

func doInfo(out io.Writer, logger logrus.FieldLogger, config *Config, kind, icao string) error {
	t, err := session.ParseInfoType(kind)
	if err != nil {
		return err
	}

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

	env, err := c.QueryInfo(ctx, t, icao)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, env.Payload)
	return err
}
