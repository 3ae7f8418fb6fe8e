// Package sink forwards the relay traffic seen by a session to an AWS SNS
// topic as JSON events.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 10 * time.Second

// Event is the document published for every envelope.
type Event struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	Station   string    `json:"station"`
	Type      string    `json:"type,omitempty"`
	Text      string    `json:"text"`
	Hash      string    `json:"hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	CPDLC *CPDLC `json:"cpdlc,omitempty"`
}

// CPDLC carries the datalink record of inbound CPDLC messages.
type CPDLC struct {
	MessageID     int    `json:"message_id"`
	ReplyToID     int    `json:"reply_to_id,omitempty"`
	ReplyTag      string `json:"reply_tag"`
	RequiresReply bool   `json:"requires_reply"`
}

// Publisher publishes events to a SNS topic. Its Inbound and Outbound
// methods have the signature of the session observers.
type Publisher struct {
	logger   logrus.FieldLogger
	client   snsiface.SNSAPI
	topicARN string
	now      func() time.Time
}

func New(logger logrus.FieldLogger, client snsiface.SNSAPI, topicARN string) *Publisher {
	return &Publisher{
		logger:   logger,
		client:   client,
		topicARN: topicARN,
		now:      time.Now,
	}
}

// Inbound publishes a received envelope.
func (p *Publisher) Inbound(env *message.Envelope) error {
	ev := &Event{
		ID:        uuid.New().String(),
		Direction: message.DirectionIn.String(),
		Station:   env.Station,
		Type:      string(env.Type),
		Text:      env.Payload,
		Hash:      env.Hash(),
		Timestamp: env.Timestamp,
	}
	if env.CPDLC != nil {
		ev.CPDLC = &CPDLC{
			MessageID:     env.CPDLC.MessageID,
			ReplyToID:     env.CPDLC.ReplyToID,
			ReplyTag:      string(env.CPDLC.ReplyTag),
			RequiresReply: env.CPDLC.RequiresReply(),
		}
	}
	return p.publish(ev)
}

// Outbound publishes the text sent to a station.
func (p *Publisher) Outbound(station, text string) error {
	return p.publish(&Event{
		ID:        uuid.New().String(),
		Direction: message.DirectionOut.String(),
		Station:   station,
		Text:      text,
		Timestamp: p.now(),
	})
}

func (p *Publisher) publish(ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "event encoding failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err = p.client.PublishWithContext(ctx, &sns.PublishInput{
		Message:  aws.String(string(payload)),
		TopicArn: aws.String(p.topicARN),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"direction": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.Direction),
			},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "event %s could not be published", ev.ID)
	}
	p.logger.WithFields(logrus.Fields{"id": ev.ID, "station": ev.Station}).Debug("Event published")

	return nil
}
