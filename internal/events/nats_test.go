package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNATSRoundTrip(t *testing.T) {
	// Skip if no NATS connection
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("Skipping test - no NATS connection configured")
	}

	n, err := NewNATS(url)
	require.NoError(t, err)
	defer n.Close()

	received := make(chan string, 1)
	sub, err := n.Subscribe("post.*", func(subject string, _ []byte) {
		received <- subject
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, n.Publish(context.Background(), PostCreated, PostEvent{PostID: "p1", AuthorID: "alice"}))

	select {
	case subject := <-received:
		require.Equal(t, PostCreated, subject)
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for NATS message")
	}
}
