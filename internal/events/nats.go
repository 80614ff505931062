package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn *nats.Conn
}

func NewNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("yatube"))
	if err != nil {
		return nil, fmt.Errorf("connexion NATS: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(_ context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.conn.Publish(subject, data)
}

// Subscribe écoute les sujets correspondant au motif (ex. "post.*").
func (n *NATS) Subscribe(pattern string, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	return n.conn.Subscribe(pattern, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
