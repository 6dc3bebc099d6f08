// Package mqttsensor implements the MQTT sensor adapter.
//
// MQTT is a push protocol: devices publish on their own cadence and the
// adapter delivers samples through subscriptions. A sample read is
// emulated by waiting on the sensor topic for the next publication.
//
// Each handle owns its own broker session so that one sensor's
// disconnect can never tear down another's stream.
package mqttsensor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// Code is the protocol identifier registered for this adapter.
const Code = "MQTT"

const subscribeTimeout = 5 * time.Second

// session abstracts the paho client so tests can run without a broker.
type session interface {
	Subscribe(topic string, qos byte, cb func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
	Close()
}

type conn struct {
	sess session
	cfg  adapter.Config

	// subs tracks live subscriptions so Disconnect can cancel them all.
	mu   sync.Mutex
	subs map[string]*adapter.Subscription
}

// Adapter is the MQTT sensor protocol adapter.
type Adapter struct {
	mu    sync.RWMutex
	conns map[string]*conn

	// dial is replaceable in tests.
	dial func(cfg adapter.Config) (session, error)
}

// New creates an MQTT adapter with no open sessions.
func New() *Adapter {
	return &Adapter{
		conns: make(map[string]*conn),
		dial:  dialBroker,
	}
}

func (a *Adapter) Descriptor() adapter.Descriptor {
	return adapter.Descriptor{
		Code:           Code,
		DisplayName:    "MQTT Sensor",
		Description:    "MQTT broker subscription for push-style IoT sensors",
		Category:       adapter.CategoryIoT,
		Subcategory:    "broker",
		ConnectionType: adapter.ConnectionPush,
		Schema:         configSchema(),
		Defaults:       configSchema().Defaults(),
		Capabilities:   a.Capabilities(),
	}
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		SupportsSubscription:   true,
		SupportsWrite:          true,
		SupportsAuthentication: true,
		SupportsEncryption:     true,
		DataTypes:              []string{"number", "string", "boolean", "object"},
	}
}

func (a *Adapter) Schema() adapter.Schema { return configSchema() }

func (a *Adapter) Defaults() adapter.Config { return configSchema().Defaults() }

// ValidateConfig checks wildcard placement, which the structural phase
// cannot express: '#' is only valid as the final level and '+' must
// occupy a whole level on its own.
func (a *Adapter) ValidateConfig(cfg adapter.Config) adapter.ValidationResult {
	res := adapter.OK()

	topic, _ := cfg.String("topic")
	if topic != "" {
		if msg := checkTopicFilter(topic); msg != "" {
			res = adapter.Merge(res, adapter.Fail("topic", msg, adapter.CodeSemantic))
		}
	}

	user, _ := cfg.String("username")
	pass, _ := cfg.String("password")
	if pass != "" && user == "" {
		res = adapter.Merge(res, adapter.Fail("username", "password set without a username", adapter.CodeSemantic))
	}

	return res
}

func checkTopicFilter(topic string) string {
	levels := strings.Split(topic, "/")
	for i, lvl := range levels {
		if strings.Contains(lvl, "#") {
			if lvl != "#" || i != len(levels)-1 {
				return "'#' must be the final topic level on its own"
			}
		}
		if strings.Contains(lvl, "+") && lvl != "+" {
			return "'+' must occupy a whole topic level"
		}
	}
	return ""
}

// Connect dials the broker and registers a handle. The session carries
// auto-reconnect, so a transient broker outage does not invalidate the
// handle.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) (*adapter.Handle, error) {
	sess, err := a.dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", adapter.WrapConnectError(err))
	}
	if err := ctx.Err(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("mqtt connect: %w", adapter.ErrTimeout)
	}

	h := adapter.NewHandle(Code, cfg)
	a.mu.Lock()
	a.conns[h.ID] = &conn{
		sess: sess,
		cfg:  cfg.Clone(),
		subs: make(map[string]*adapter.Subscription),
	}
	a.mu.Unlock()
	return h, nil
}

// Disconnect cancels all live subscriptions and closes the session.
// Unknown handles are a no-op.
func (a *Adapter) Disconnect(_ context.Context, h *adapter.Handle) error {
	if h == nil {
		return nil
	}
	a.mu.Lock()
	c, ok := a.conns[h.ID]
	delete(a.conns, h.ID)
	a.mu.Unlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	subs := make([]*adapter.Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subs = make(map[string]*adapter.Subscription)
	c.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
	c.sess.Close()
	return nil
}

// IsConnected consults the broker session, not just table membership:
// paho knows whether the TCP link is currently up.
func (a *Adapter) IsConnected(h *adapter.Handle) bool {
	if h == nil {
		return false
	}
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	return ok && c.sess.IsConnected()
}

// Read waits for the next publication on the sensor topic. Push
// protocols have no request/response cycle, so a sample is whatever the
// device publishes first within the context deadline.
func (a *Adapter) Read(ctx context.Context, h *adapter.Handle) (*adapter.Reading, error) {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mqtt read: %w", adapter.ErrHandleNotFound)
	}

	topic, _ := c.cfg.String("topic")
	qos := qosOf(c.cfg)

	// Buffered so a message arriving after we stop listening cannot
	// block the paho callback goroutine.
	msgs := make(chan *adapter.Reading, 1)
	err := c.sess.Subscribe(topic, qos, func(topic string, payload []byte) {
		select {
		case msgs <- decodePayload(topic, payload):
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt read: subscribe %s: %w", topic, adapter.WrapConnectError(err))
	}
	defer func() { _ = c.sess.Unsubscribe(topic) }()

	select {
	case r := <-msgs:
		h.Touch()
		return r, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mqtt read: no message on %s: %w", topic, adapter.ErrTimeout)
	}
}

// Subscribe attaches a continuous data stream to the sensor topic.
// The error handler fires at most once; after it fires the subscription
// is inactive and must be re-established by the caller.
func (a *Adapter) Subscribe(_ context.Context, h *adapter.Handle, onData adapter.DataHandler, onErr adapter.ErrorHandler) (*adapter.Subscription, error) {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mqtt subscribe: %w", adapter.ErrHandleNotFound)
	}

	topic, _ := c.cfg.String("topic")
	qos := qosOf(c.cfg)

	sub := adapter.NewSubscription(func() {
		_ = c.sess.Unsubscribe(topic)
	})

	err := c.sess.Subscribe(topic, qos, func(topic string, payload []byte) {
		if !sub.Active() {
			return
		}
		r := decodePayload(topic, payload)
		if r.Quality == qualityBad {
			if sub.Fail() {
				c.dropSub(sub)
				if onErr != nil {
					onErr(fmt.Errorf("mqtt subscription %s: undecodable payload: %w", topic, adapter.ErrMalformed))
				}
			}
			return
		}
		h.Touch()
		onData(r)
	})
	if err != nil {
		sub.Cancel()
		return nil, fmt.Errorf("mqtt subscribe %s: %w", topic, adapter.WrapConnectError(err))
	}

	c.mu.Lock()
	c.subs[sub.ID()] = sub
	c.mu.Unlock()
	return sub, nil
}

func (c *conn) dropSub(sub *adapter.Subscription) {
	c.mu.Lock()
	delete(c.subs, sub.ID())
	c.mu.Unlock()
}

// Write publishes a command payload to the sensor's command topic
// (topic with "/set" appended, the common actuator convention).
func (a *Adapter) Write(_ context.Context, h *adapter.Handle, values map[string]any) error {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("mqtt write: %w", adapter.ErrHandleNotFound)
	}

	topic, _ := c.cfg.String("topic")
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("mqtt write: encode: %w", adapter.ErrMalformed)
	}
	if err := c.sess.Publish(topic+"/set", qosOf(c.cfg), false, payload); err != nil {
		return fmt.Errorf("mqtt write %s/set: %w", topic, adapter.WrapConnectError(err))
	}
	h.Touch()
	return nil
}

func qosOf(cfg adapter.Config) byte {
	q, ok := cfg.Int("qos")
	if !ok || q < 0 || q > 2 {
		return 1
	}
	return byte(q)
}

// Quality scores for decoded payloads.
const (
	qualityFull = 100
	qualityBad  = 0
)

// decodePayload maps a raw MQTT payload onto a reading. JSON objects
// become keyed values; scalars land under "value"; an empty payload is
// undecodable.
func decodePayload(topic string, payload []byte) *adapter.Reading {
	r := &adapter.Reading{
		Timestamp: time.Now().UTC(),
		Quality:   qualityFull,
		Source:    Code + "/" + topic,
		Metadata:  map[string]any{"topic": topic},
	}

	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err == nil {
		r.Values = obj
		return r
	}

	text := strings.TrimSpace(string(payload))
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		r.Values = map[string]any{"value": n}
		return r
	}
	if b, err := strconv.ParseBool(text); err == nil {
		r.Values = map[string]any{"value": b}
		return r
	}
	if text == "" {
		r.Values = map[string]any{}
		r.Quality = qualityBad
		return r
	}
	r.Values = map[string]any{"value": text}
	return r
}

// dialBroker builds a per-handle paho session. Auto-reconnect keeps the
// handle usable across broker restarts; live subscriptions are restored
// by paho's resume logic.
func dialBroker(cfg adapter.Config) (session, error) {
	host, _ := cfg.String("host")
	port, ok := cfg.Int("port")
	if !ok {
		port = 1883
	}
	timeoutMs, ok := cfg.Int("timeout")
	if !ok {
		timeoutMs = 10000
	}
	timeout := time.Duration(timeoutMs) * time.Millisecond

	scheme := "tcp"
	if tls, ok := cfg.Bool("tls"); ok && tls {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, host, port))

	clientID, _ := cfg.String("clientId")
	if clientID == "" {
		clientID = "fieldlink-" + adapter.GenerateHandleID()[:8]
	}
	opts.SetClientID(clientID)

	if user, ok := cfg.String("username"); ok && user != "" {
		opts.SetUsername(user)
		pass, _ := cfg.String("password")
		opts.SetPassword(pass)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeout)
	opts.SetKeepAlive(60 * time.Second)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, adapter.ErrTimeout
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &pahoSession{client: client}, nil
}

// pahoSession adapts the paho client to the session interface.
type pahoSession struct {
	client pahomqtt.Client
}

func (p *pahoSession) Subscribe(topic string, qos byte, cb func(topic string, payload []byte)) error {
	token := p.client.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		cb(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return adapter.ErrTimeout
	}
	return token.Error()
}

func (p *pahoSession) Unsubscribe(topic string) error {
	token := p.client.Unsubscribe(topic)
	if !token.WaitTimeout(subscribeTimeout) {
		return adapter.ErrTimeout
	}
	return token.Error()
}

func (p *pahoSession) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(subscribeTimeout) {
		return adapter.ErrTimeout
	}
	return token.Error()
}

func (p *pahoSession) IsConnected() bool { return p.client.IsConnected() }

func (p *pahoSession) Close() {
	// Quiesce briefly so in-flight acks can complete.
	p.client.Disconnect(250)
}
