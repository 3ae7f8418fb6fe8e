package app

import (
	"os"
	"strconv"

	"github.com/JiscSD/cpdlc-channel-adapter/relay"
	"github.com/JiscSD/cpdlc-channel-adapter/session"
	"github.com/JiscSD/cpdlc-channel-adapter/sink"

	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// newClient builds a session client from the configuration. The service is
// not initialized.
func newClient(logger logrus.FieldLogger, config *Config, options ...session.Option) (*session.Client, error) {
	relayOpts := []relay.Option{
		relay.SetRateLimit(config.Relay.RequestsPerSecond, config.Relay.Burst),
	}
	if config.Relay.Timeout > 0 {
		relayOpts = append(relayOpts, relay.SetTimeout(config.Relay.Timeout))
	}
	transport := relay.New(logger.WithField("component", "relay"), relayOpts...)

	options = append([]session.Option{session.SetWorkers(config.Dispatch.Workers)}, options...)
	c := session.New(logger.WithField("component", "session"), transport, options...)
	c.SetRelayEndpoint(config.Relay.Endpoint)
	c.SetCallsign(config.Relay.Callsign)
	c.SetLogonCode(config.Relay.LogonCode)
	c.SetEmail(config.Relay.Email)
	if err := c.SetPollInterval(config.Poller.MinInterval, config.Poller.MaxInterval); err != nil {
		return nil, errors.Wrap(err, "poller configuration")
	}

	return c, nil
}

// attachSink registers the SNS publisher as observer when a topic is
// configured.
func attachSink(logger logrus.FieldLogger, config *Config, c *session.Client) error {
	if config.SNS.TopicARN == "" {
		return nil
	}
	sess, err := awsSession(logger, config.SNS.Profile, config.SNS.Endpoint)
	if err != nil {
		return errors.Wrap(err, "aws session")
	}
	p := sink.New(logger.WithField("component", "sink"), sns.New(sess), config.SNS.TopicARN)
	c.RegisterInboundObserver(p.Inbound)
	c.RegisterOutboundObserver(p.Outbound)
	logger.WithField("topic", config.SNS.TopicARN).Info("Publishing traffic to SNS")

	return nil
}

type logrusProxy struct {
	logger logrus.FieldLogger
}

func (l logrusProxy) Log(args ...interface{}) {
	l.logger.WithField("client", "aws").Debug(args...)
}

// awsSession returns a session using NewSessionWithOptions meaning that it
// relies on the SDK defaults but also the user config files and environment.
//
// AWS_SNS_DISABLE_SSL is not looked up by the SDK, it eases the use of local
// emulators.
func awsSession(logger logrus.FieldLogger, profile, endpoint string) (*awssession.Session, error) {
	options := awssession.Options{}
	if profile != "" {
		options.Profile = profile
	}
	if endpoint != "" {
		options.Config.WithEndpoint(endpoint)
	}
	if res, ok := os.LookupEnv("AWS_SNS_DISABLE_SSL"); ok {
		disabled, _ := strconv.ParseBool(res)
		options.Config.WithDisableSSL(disabled)
	}
	if logrus.GetLevel() == logrus.DebugLevel {
		options.Config.WithCredentialsChainVerboseErrors(true)
	}
	options.Config.WithLogger(logrusProxy{logger: logger})
	return awssession.NewSessionWithOptions(options)
}
