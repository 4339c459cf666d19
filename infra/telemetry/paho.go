package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridscope/gridscope/core/model"
	coretelemetry "github.com/gridscope/gridscope/core/telemetry"
	"github.com/gridscope/gridscope/infra/logger"
)

// pahoClient is the subset of the Paho client used by the publisher.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements the telemetry Publisher interface using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker using the provided configuration.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("telemetry")
	opts.OnConnect = func(_ paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoPublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// PublishEstimate sends the estimate on <prefix>/territory/<id>/generation.
func (p *PahoPublisher) PublishEstimate(est model.GenerationEstimate) error {
	payload := struct {
		SubstationID string    `json:"substation_id"`
		Time         time.Time `json:"time"`
		EnergyKWh    float64   `json:"energy_kwh"`
		Ratio        float64   `json:"ratio"`
		Impact       string    `json:"impact"`
		FromGap      bool      `json:"from_gap"`
	}{
		SubstationID: est.SubstationID,
		Time:         est.Time,
		EnergyKWh:    est.EnergyKWh,
		Ratio:        est.Ratio,
		Impact:       est.Impact.String(),
		FromGap:      est.FromGap,
	}
	topic := fmt.Sprintf("%s/territory/%s/generation", p.prefix, est.SubstationID)
	return p.publish(topic, payload)
}

// PublishAnomaly sends the anomaly on <prefix>/anomaly/<kind>.
func (p *PahoPublisher) PublishAnomaly(a model.Anomaly) error {
	payload := struct {
		Kind    string `json:"kind"`
		Subject string `json:"subject"`
		Detail  string `json:"detail,omitempty"`
	}{
		Kind:    a.Kind.String(),
		Subject: a.Subject,
		Detail:  a.Detail,
	}
	topic := fmt.Sprintf("%s/anomaly/%s", p.prefix, a.Kind)
	return p.publish(topic, payload)
}

func (p *PahoPublisher) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, data)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published to %s", topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *PahoPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

var _ coretelemetry.Publisher = (*PahoPublisher)(nil)
