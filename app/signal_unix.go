// +build !windows

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JiscSD/cpdlc-channel-adapter/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func interrupt(cancel <-chan struct{}, logger logrus.FieldLogger, c *session.Client) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	for {
		select {
		case sig := <-ch:
			switch sig {
			case syscall.SIGUSR1:
				ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
				if err := c.ReinitializeService(ctx); err != nil {
					logger.WithError(err).Error("Service could not be reinitialized")
				}
				done()
				continue
			case syscall.SIGUSR2:
				logger.WithFields(logrus.Fields{
					"level":    c.ServiceLevel(),
					"state":    c.State(),
					"unit":     c.CurrentATCUnit(),
					"callsign": c.ATCCallsign(),
					"network":  c.Network(),
				}).Info("Session status")
				continue
			default:
				return fmt.Errorf("received signal %s", sig)
			}
		case <-cancel:
			return errors.New("canceled")
		}
	}
}
