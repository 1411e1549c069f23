package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ClientConfig configures the NATS connection the dispatcher publishes
// through.
type ClientConfig struct {
	URL            string
	Name           string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:            nats.DefaultURL,
		Name:           "ledgercore-dispatcher",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1, // retry indefinitely; a down broker should not sideline the API process
		ConnectTimeout: 5 * time.Second,
	}
}

func NewConnection(cfg ClientConfig) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
	}
	return nc, nil
}
