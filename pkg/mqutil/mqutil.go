// Package mqutil provides access to IBM MQ behind a backend-neutral Manager
// interface. CLIManager drives the vendor sample tools (runmqsc, amqsput,
// amqsget), LibraryManager uses the native MQI client when it is compiled
// in. The factory in adapterutil picks between them.
package mqutil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Properties carries message metadata. The CLI backend synthesizes most of
// these fields since the sample tools do not expose descriptor data.
type Properties struct {
	MessageID     string    `json:"message_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	ReplyToQueue  string    `json:"reply_to_queue,omitempty"`
	Format        string    `json:"format"`
	Priority      int       `json:"priority"`
	Persistent    bool      `json:"persistent"`
	PutTime       time.Time `json:"put_time"`
}

// Message is a queue message with its payload and metadata.
type Message struct {
	Payload    []byte     `json:"payload"`
	Properties Properties `json:"properties"`
}

// Text returns the payload as a string.
func (m Message) Text() string {
	return string(m.Payload)
}

// DecodeJSON unmarshals the payload into out.
func (m Message) DecodeJSON(out any) error {
	err := json.Unmarshal(m.Payload, out)
	if err != nil {
		return errutil.Wrap(errutil.MessageReceive, "payload is not valid JSON", err)
	}
	return nil
}

// TextMessage builds a string message with default properties.
func TextMessage(payload string) Message {
	return Message{
		Payload:    []byte(payload),
		Properties: defaultProperties(),
	}
}

// JSONMessage marshals v into a message payload.
func JSONMessage(v any) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, errutil.Wrap(errutil.MessageSend, "failed to encode payload", err)
	}
	return Message{Payload: payload, Properties: defaultProperties()}, nil
}

func defaultProperties() Properties {
	return Properties{
		MessageID: uuid.NewString(),
		Format:    "MQSTR",
		Priority:  4,
		PutTime:   time.Now().UTC(),
	}
}

// Manager is the backend-neutral messaging contract.
//
// Get returns (nil, nil) when no message arrives within the wait interval;
// an empty queue is a normal outcome, not an error.
type Manager interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	Put(ctx context.Context, queue string, msg Message) error
	Get(ctx context.Context, queue string, wait time.Duration) (*Message, error)
	Browse(ctx context.Context, queue string) (*Message, error)

	QueueDepth(ctx context.Context, queue string) (int, error)
	Purge(ctx context.Context, queue string) (int, error)
	Ping(ctx context.Context) error
}
