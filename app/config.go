package app

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const defaultConfig = `# CPDLC Channel Adapter

################################## LOGGING ####################################

[logging]

#
# Logging verbosity level.
# Supported values: "DEBUG", "INFO", "WARN", "ERROR", "FATAL" or "PANIC".
#
level = "INFO"

################################## RELAY ######################################

[relay]

#
# Base URL of the ACARS relay. The official relay is the only one supporting
# network affiliation changes.
#
endpoint = "http://www.hoppie.nl/acars/system"

#
# Identity of the aircraft. The logon code is issued by the relay operator.
# The email address unlocks the full service (account management).
#
callsign = ""
logon_code = ""
email = ""

#
# Timeout of every HTTP exchange.
#
timeout = "10s"

#
# Client-side throttling of the requests sent to the relay.
#
requests_per_second = 2.0
burst = 4

################################## POLLER #####################################

[poller]

#
# Bounds, in seconds, of the random delay between two polls.
#
min_interval = 15
max_interval = 30

################################## DISPATCH ###################################

[dispatch]

#
# Maximum number of observers running concurrently.
#
workers = 8

################################## METRICS ####################################

[metrics]

#
# Listen address of the health, metrics and profiling endpoints.
#
addr = ":6060"

################################## SNS ########################################

[sns]

#
# AWS SNS topic ARN, e.g. "arn:aws:sns:eu-west-2:123456789012:cpdlc".
#
# When set, the adapter publishes every message sent or received.
#
topic_arn = ""
profile = ""
endpoint = ""
`

const maskedSecret = "********"

type Config struct {
	v *viper.Viper

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Relay struct {
		Endpoint          string        `mapstructure:"endpoint"`
		Callsign          string        `mapstructure:"callsign"`
		LogonCode         string        `mapstructure:"logon_code"`
		Email             string        `mapstructure:"email"`
		Timeout           time.Duration `mapstructure:"timeout"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
		Burst             int           `mapstructure:"burst"`
	} `mapstructure:"relay"`

	Poller struct {
		MinInterval int `mapstructure:"min_interval"`
		MaxInterval int `mapstructure:"max_interval"`
	} `mapstructure:"poller"`

	Dispatch struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"dispatch"`

	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	SNS struct {
		TopicARN string `mapstructure:"topic_arn"`
		Profile  string `mapstructure:"profile"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"sns"`
}

func (c Config) Validate() error {
	if c.Relay.Endpoint == "" {
		return errors.New("relay.endpoint is empty")
	}
	if c.Relay.Timeout < 0 {
		return errors.New("relay.timeout is negative")
	}
	if c.Relay.RequestsPerSecond <= 0 || c.Relay.Burst < 1 {
		return errors.New("relay throttling must allow at least one request")
	}
	if c.Poller.MinInterval < 0 || c.Poller.MinInterval > c.Poller.MaxInterval {
		return errors.Errorf("poller interval [%d, %d] is invalid", c.Poller.MinInterval, c.Poller.MaxInterval)
	}
	if c.Dispatch.Workers < 1 {
		return errors.New("dispatch.workers must be positive")
	}
	return nil
}

// String renders the configuration as TOML with the logon code masked.
func (c Config) String() string {
	fs := afero.NewMemMapFs()
	out := viper.New()
	out.SetFs(fs)
	for _, key := range c.v.AllKeys() {
		out.Set(key, c.v.Get(key))
	}
	if out.GetString("relay.logon_code") != "" {
		out.Set("relay.logon_code", maskedSecret)
	}
	const name = "/config.toml"
	if err := out.WriteConfigAs(name); err != nil {
		return err.Error()
	}
	blob, err := afero.ReadFile(fs, name)
	if err != nil {
		return err.Error()
	}
	return string(blob)
}

func loadConfig(c *Config) error {
	v := viper.New()

	v.SetEnvPrefix("CPDLC_ADAPTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("cpdlc-channel-adapter")
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/")
	v.AddConfigPath("/etc/cpdlc/")

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read our default configuration.
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		panic(err) // Not in the user path.
	}

	// Include configuration file provided by the user.
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return errors.Wrap(err, "configuration unmarshaling failed")
	}

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config did not pass validation")
	}

	c.v = v

	return nil
}
