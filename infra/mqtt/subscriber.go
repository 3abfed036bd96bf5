package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/core/model"
	"github.com/atlasgrid/geochange/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ObservationHandler consumes one decoded observation.
type ObservationHandler func(model.Observation)

// Subscriber connects to the broker and forwards decoded observations to a
// handler. Decode failures are dropped: logged and counted as rejected
// observations, never fatal.
type Subscriber struct {
	cli     pahoClient
	topic   string
	qos     byte
	handler ObservationHandler
	sink    metrics.Sink
	log     logger.Logger
}

// NewSubscriber connects to the MQTT broker and subscribes to the observation
// topic. The subscription is re-established on reconnect. sink may be nil.
func NewSubscriber(cfg Config, handler ObservationHandler, sink metrics.Sink) (*Subscriber, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}

	log := logger.New("mqtt-subscriber")
	s := &Subscriber{topic: cfg.Topic, qos: cfg.QoS, handler: handler, sink: sink, log: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(s.topic, s.qos, s.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
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
	s.cli = c
	return s, nil
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	obs, err := DecodeObservation(msg.Topic(), msg.Payload())
	if err != nil {
		s.log.Warnf("drop observation on %s: %v", msg.Topic(), err)
		rec := metrics.IngestRecord{
			Observation: model.Observation{Site: siteFromTopic(msg.Topic())},
			Accepted:    false,
		}
		if rerr := s.sink.RecordIngest([]metrics.IngestRecord{rec}); rerr != nil {
			s.log.Warnf("record dropped observation: %v", rerr)
		}
		return
	}
	if s.handler != nil {
		s.handler(obs)
	}
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}

type observationPayload struct {
	Site       string  `json:"site"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Presence   int     `json:"presence"`
	Source     string  `json:"source"`
	ObservedAt int64   `json:"observed_at"` // unix seconds, optional
}

// DecodeObservation parses an observation message. The site defaults to the
// last topic segment when the payload leaves it empty.
func DecodeObservation(topic string, payload []byte) (model.Observation, error) {
	var p observationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.Observation{}, fmt.Errorf("decode payload: %w", err)
	}
	o := model.Observation{
		Site:      p.Site,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Presence:  p.Presence,
		Source:    p.Source,
	}
	if o.Site == "" {
		o.Site = siteFromTopic(topic)
	}
	if p.ObservedAt > 0 {
		o.ObservedAt = time.Unix(p.ObservedAt, 0).UTC()
	} else {
		o.ObservedAt = time.Now().UTC()
	}
	if err := o.Validate(); err != nil {
		return model.Observation{}, err
	}
	return o, nil
}

// siteFromTopic extracts the site name from the last topic segment.
func siteFromTopic(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
		return topic[i+1:]
	}
	return ""
}
