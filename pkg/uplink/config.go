// Package uplink loads client configuration and bridges it onto the
// speech session builder.
package uplink

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harunnryd/uplink/pkg/configutil"
	"github.com/harunnryd/uplink/pkg/errorsx"
	"github.com/harunnryd/uplink/pkg/speech"
	wstransport "github.com/harunnryd/uplink/pkg/transports/websocket"
)

type Config struct {
	Region           string          `mapstructure:"region"`
	Endpoint         string          `mapstructure:"endpoint"`
	EndpointType     string          `mapstructure:"endpoint_type"`
	Mode             string          `mapstructure:"mode"`
	SubscriptionKey  string          `mapstructure:"subscription_key"`
	ConnectTimeoutMS *int            `mapstructure:"connect_timeout_ms"`
	QueueDepth       *int            `mapstructure:"queue_depth"`
	LogLevel         string          `mapstructure:"log_level"`
	LogFormat        string          `mapstructure:"log_format"`
	Transport        TransportConfig `mapstructure:"transport"`
	Audio            AudioConfig     `mapstructure:"audio"`
}

type TransportConfig struct {
	Settings map[string]any `mapstructure:"settings"`
}

type AudioConfig struct {
	File         string `mapstructure:"file"`
	MaxChunkKB   int    `mapstructure:"max_chunk_kb"`
	MaxDelayMS   int    `mapstructure:"max_delay_ms"`
	TailLingerMS int    `mapstructure:"tail_linger_ms"`
}

type websocketSettings struct {
	HandshakeTimeoutMS *int `mapstructure:"handshake_timeout_ms"`
}

// Load reads a config file and environment overrides (UPLINK_ prefix).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("UPLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := configutil.RequireString(c.SubscriptionKey, "subscription_key"); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	if strings.TrimSpace(c.Region) == "" && strings.TrimSpace(c.Endpoint) == "" {
		return errorsx.New(errorsx.ReasonConfiguration, "region or endpoint is required")
	}
	if _, err := c.RecognitionMode(); err != nil {
		return err
	}
	if _, err := c.EndpointKind(); err != nil {
		return err
	}
	return nil
}

func (c Config) RecognitionMode() (speech.RecognitionMode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", "interactive":
		return speech.ModeInteractive, nil
	case "conversation":
		return speech.ModeConversation, nil
	case "dictation":
		return speech.ModeDictation, nil
	default:
		return 0, errorsx.New(errorsx.ReasonConfiguration, fmt.Sprintf("unknown recognition mode %q", c.Mode))
	}
}

func (c Config) EndpointKind() (speech.EndpointType, error) {
	switch strings.ToLower(strings.TrimSpace(c.EndpointType)) {
	case "", "speech":
		return speech.EndpointSpeech, nil
	case "translation":
		return speech.EndpointTranslation, nil
	case "intent":
		return speech.EndpointIntent, nil
	default:
		return 0, errorsx.New(errorsx.ReasonConfiguration, fmt.Sprintf("unknown endpoint type %q", c.EndpointType))
	}
}

func (c Config) ConnectTimeout() time.Duration {
	return configutil.DurationMS(c.ConnectTimeoutMS, 30*time.Second)
}

// Dialer builds the WebSocket dialer from the transport settings map.
func (c Config) Dialer() (wstransport.Dialer, error) {
	var ws websocketSettings
	if err := configutil.DecodeSettings(c.Transport.Settings, &ws); err != nil {
		return wstransport.Dialer{}, errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	return wstransport.Dialer{
		HandshakeTimeout: configutil.DurationMS(ws.HandshakeTimeoutMS, 0),
	}, nil
}

// ApplyTo maps the loaded configuration onto a session builder.
func (c Config) ApplyTo(client speech.Client) (speech.Client, error) {
	mode, err := c.RecognitionMode()
	if err != nil {
		return client, err
	}
	client = client.
		SetRecognitionMode(mode).
		SetRegion(c.Region).
		SetAuthentication(speech.AuthSubscriptionKey, c.SubscriptionKey).
		SetConnectTimeout(c.ConnectTimeout()).
		SetQueueDepth(configutil.IntValue(c.QueueDepth, 0))
	if c.Endpoint != "" {
		client = client.SetEndpointURL(c.Endpoint)
	}
	dialer, err := c.Dialer()
	if err != nil {
		return client, err
	}
	return client.SetDialer(dialer), nil
}
