// Package announce publishes the persisted power state to an MQTT broker so
// the rest of a home-automation bus can observe the engine. The state topic
// is retained; subscribers joining later still see the current value.
package announce

import (
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/domain/power"
)

const (
	// connectTimeout bounds the initial broker connection.
	connectTimeout = 10 * time.Second
	// publishTimeout bounds each state publication.
	publishTimeout = 5 * time.Second
	// disconnectQuiesceMs is the paho disconnect grace period.
	disconnectQuiesceMs = 250
	// stateQoS is at-least-once; duplicates are harmless for a retained mark.
	stateQoS = 1
)

var (
	// ErrConnectionFailed indicates the broker could not be reached.
	ErrConnectionFailed = errors.New("announce: connection failed")
	// ErrPublishFailed indicates the broker did not accept a publication.
	ErrPublishFailed = errors.New("announce: publish failed")
)

// Announcer publishes state marks to one broker.
type Announcer struct {
	client pahomqtt.Client
	// stateTopic receives the retained "0"/"1" mark.
	stateTopic string
	// onlineTopic carries the retained availability flag via LWT.
	onlineTopic string
}

// stateTopics derives the two published topics from the configured prefix.
func stateTopics(prefix string) (stateTopic, onlineTopic string) {
	return prefix + "/power/state", prefix + "/power/online"
}

// Connect establishes the broker session and announces availability.
// The last-will marks the daemon offline if the session dies uncleanly.
func Connect(cfg config.MQTT) (*Announcer, error) {
	a := &Announcer{}
	a.stateTopic, a.onlineTopic = stateTopics(cfg.TopicPrefix)

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetWill(a.onlineTopic, "0", stateQoS, true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	a.client = pahomqtt.NewClient(opts)

	token := a.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := a.publish(a.onlineTopic, "1"); err != nil {
		a.client.Disconnect(disconnectQuiesceMs)

		return nil, err
	}

	return a, nil
}

// AnnounceState publishes the persisted signal mark, retained.
func (a *Announcer) AnnounceState(current power.Signal) error {
	return a.publish(a.stateTopic, current.Mark())
}

// publish sends one retained message with the package timeout.
func (a *Announcer) publish(topic, payload string) error {
	token := a.client.Publish(topic, stateQoS, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Close marks the daemon offline and tears down the session.
func (a *Announcer) Close() {
	if a == nil || a.client == nil {
		return
	}

	_ = a.publish(a.onlineTopic, "0")
	a.client.Disconnect(disconnectQuiesceMs)
}
