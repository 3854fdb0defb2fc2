package sink

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/allbin/serialcap/internal/capture"
)

const (
	publishTimeout = 2 * time.Second
	disconnectWait = 250 // milliseconds

	// publishQueue is how many records may wait for the broker before new
	// ones are dropped
	publishQueue = 256
)

// drainTimeout bounds how long Close waits for queued records
var drainTimeout = 2 * time.Second

// Publisher is the slice of mqtt.Client the sink needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig describes the broker connection
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
	Logger   zerolog.Logger
}

// MQTT publishes every record to a topic. Write only queues the record; a
// single goroutine publishes in order and waits for the broker. A full queue,
// a failed publish or a timeout drops the record, logs it and counts it.
type MQTT struct {
	client  Publisher
	topic   string
	qos     byte
	log     zerolog.Logger
	dropped *atomic.Int64

	mu     sync.Mutex
	closed bool
	queue  chan []byte
	done   chan struct{}
}

// NewMQTT wraps an already connected publisher
func NewMQTT(client Publisher, topic string, qos byte, log zerolog.Logger) *MQTT {
	m := &MQTT{
		client:  client,
		topic:   topic,
		qos:     qos,
		log:     log,
		dropped: atomic.NewInt64(0),
		queue:   make(chan []byte, publishQueue),
		done:    make(chan struct{}),
	}
	go m.publishLoop()
	return m
}

// DialMQTT connects to cfg.Broker and returns a sink publishing to cfg.Topic
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	if cfg.ClientID == "" {
		cfg.ClientID = generateClientID()
	}
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(2 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetOrderMatters(true)

	mqttLog := pahoLogger{cfg.Logger}
	mqtt.ERROR = mqttLog
	mqtt.CRITICAL = mqttLog

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, token.Error())
	}

	return NewMQTT(client, cfg.Topic, cfg.QoS, cfg.Logger), nil
}

// Write queues rec for publishing and never blocks on the broker
func (m *MQTT) Write(rec capture.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		m.drop(fmt.Errorf("sink closed"))
		return nil
	}
	select {
	case m.queue <- rec.Bytes():
	default:
		m.drop(fmt.Errorf("publish queue full (%d records)", publishQueue))
	}
	return nil
}

func (m *MQTT) publishLoop() {
	defer close(m.done)
	for payload := range m.queue {
		token := m.client.Publish(m.topic, m.qos, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			m.drop(fmt.Errorf("publish timed out after %v", publishTimeout))
			continue
		}
		if err := token.Error(); err != nil {
			m.drop(err)
		}
	}
}

func (m *MQTT) drop(err error) {
	m.dropped.Inc()
	m.log.Warn().Err(err).Str("topic", m.topic).Msg("mqtt publish failed")
}

// Dropped is the number of records that could not be published
func (m *MQTT) Dropped() int64 { return m.dropped.Load() }

// Close waits up to drainTimeout for queued records, then disconnects
func (m *MQTT) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	select {
	case <-m.done:
	case <-time.After(drainTimeout):
		m.log.Warn().Int("records", len(m.queue)).Msg("mqtt queue not drained before close")
	}
	m.client.Disconnect(disconnectWait)
	return nil
}

func generateClientID() string {
	return fmt.Sprintf("serialcap-%v-%v", time.Now().Unix(), rand.Intn(1000000))
}

// pahoLogger routes paho's internal logging into zerolog
type pahoLogger struct {
	log zerolog.Logger
}

func (l pahoLogger) Println(v ...interface{}) {
	l.log.Warn().Str("component", "mqtt").Msg(fmt.Sprint(v...))
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.log.Warn().Str("component", "mqtt").Msgf(format, v...)
}
