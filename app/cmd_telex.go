package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type telexOptions struct {
	to string

	// Departure clearance request.
	dcl          bool
	aircraftType string
	departure    string
	destination  string
	stand        string
	atis         string
}

func NewCmdTelex(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	opts := &telexOptions{}
	cmd := &cobra.Command{
		Use:   "telex [text]",
		Short: "Send a telex, or a departure clearance request with --dcl",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doTelex(out, logger, config, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Destination station")
	cmd.Flags().BoolVar(&opts.dcl, "dcl", false, "Request a pre-departure clearance from the station")
	cmd.Flags().StringVar(&opts.aircraftType, "aircraft", "", "Aircraft type (--dcl)")
	cmd.Flags().StringVar(&opts.departure, "departure", "", "Departure airport (--dcl)")
	cmd.Flags().StringVar(&opts.destination, "destination", "", "Destination airport (--dcl)")
	cmd.Flags().StringVar(&opts.stand, "stand", "", "Departure stand (--dcl)")
	cmd.Flags().StringVar(&opts.atis, "atis", "", "ATIS letter (--dcl)")

	return cmd
}

func doTelex(out io.Writer, logger logrus.FieldLogger, config *Config, opts *telexOptions, text string) error {
	if opts.to == "" {
		return errors.New("destination station is empty")
	}
	if !opts.dcl && text == "" {
		return errors.New("telex text is empty")
	}
	if opts.dcl && opts.departure == "" {
		return errors.New("departure airport is empty")
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

	var ok bool
	if opts.dcl {
		ok, err = c.DepartureClearanceDelivery(ctx, opts.to, opts.aircraftType, opts.destination, opts.departure, opts.stand, opts.atis)
	} else {
		ok, err = c.SendTelex(ctx, opts.to, text)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("relay did not accept the telex")
	}
	_, err = fmt.Fprintln(out, "Telex sent to", strings.ToUpper(opts.to))
	return err
}
