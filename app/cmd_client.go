package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/JiscSD/cpdlc-channel-adapter/message"
	"github.com/JiscSD/cpdlc-channel-adapter/session"
	"github.com/JiscSD/cpdlc-channel-adapter/version"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewCmdClient(logger logrus.FieldLogger, config *Config) *cobra.Command {
	var station string
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Start a CPDLC session and follow the relay traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.WithField("v", version.VERSION).Info("Starting client...")
			return doClient(logger, config, station)
		},
	}

	cmd.Flags().StringVarP(&station, "login", "l", "", "ATC station to log on to once the service is up")

	return cmd
}

func doClient(logger logrus.FieldLogger, config *Config, station string) error {
	metrics := session.NewMetrics()
	prometheus.MustRegister(metrics.Collectors()...)

	c, err := newClient(logger, config, session.SetMetrics(metrics))
	if err != nil {
		return err
	}
	if err := attachSink(logger, config, c); err != nil {
		return err
	}
	follow(logger, c)

	var g run.Group
	{
		ctx, cancel := context.WithCancel(context.Background())

		g.Add(func() error {
			if err := c.InitializeService(ctx); err != nil {
				return err
			}
			if station != "" {
				if _, err := c.Login(ctx, station); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
			if c.State() == session.Connected {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if _, err := c.Logout(ctx); err != nil {
					logger.WithError(err).Warn("Logoff failed")
				}
			}
			c.Close()
		})
	}
	{
		ln, err := net.Listen("tcp", config.Metrics.Addr)
		if err != nil {
			return err
		}
		logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

		g.Add(func() error {
			mux := http.NewServeMux()

			// Health check.
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				if !c.Initialized() {
					w.WriteHeader(http.StatusServiceUnavailable)
				}
				fmt.Fprintln(w, c.ServiceLevel(), c.State(), c.CurrentATCUnit())
			})

			// Prometheus metrics.
			mux.Handle("/metrics", promhttp.Handler())

			// Profiling data.
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
			mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))

			return http.Serve(ln, mux)
		}, func(error) {
			ln.Close()
		})
	}
	{
		cancel := make(chan struct{})

		g.Add(func() error {
			err := interrupt(cancel, logger, c)
			logger.Warn("Shutting down...")
			return err
		}, func(error) {
			close(cancel)
		})
	}

	return g.Run()
}

// follow logs the session events.
func follow(logger logrus.FieldLogger, c *session.Client) {
	c.RegisterInboundObserver(func(env *message.Envelope) error {
		entry := logger.WithFields(logrus.Fields{"from": env.Station, "type": env.Type})
		if env.CPDLC != nil {
			entry = entry.WithFields(logrus.Fields{"id": env.CPDLC.MessageID, "reply": env.CPDLC.ReplyTag.Name()})
		}
		entry.Info(env.Payload)
		return nil
	})
	c.RegisterOutboundObserver(func(station, text string) error {
		logger.WithField("to", station).Info(text)
		return nil
	})
	c.RegisterConnectCallback(func() error {
		logger.WithField("station", c.CurrentATCUnit()).Info("Logged on")
		return nil
	})
	c.RegisterDisconnectCallback(func() error {
		logger.Info("Logged off")
		return nil
	})
	c.RegisterATCInfoCallback(func() error {
		logger.WithFields(logrus.Fields{"unit": c.CurrentATCUnit(), "callsign": c.ATCCallsign()}).Info("Current ATC unit")
		return nil
	})
}
