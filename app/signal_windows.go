// +build windows

package app

import (
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
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-ch:
		return fmt.Errorf("received signal %s", sig)
	case <-cancel:
		return errors.New("canceled")
	}
}
