package message

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DataTag used in every packet produced by this package.
const DataTag = "data2"

// ReplyTag is the response attribute of a CPDLC message. It dictates which
// reply texts are legal.
type ReplyTag string

const (
	ReplyTagWilcoUnable    ReplyTag = "WU"
	ReplyTagAffirmNegative ReplyTag = "AN"
	ReplyTagRoger          ReplyTag = "R"
	ReplyTagNotEnabled     ReplyTag = "NE"
	ReplyTagRequired       ReplyTag = "Y"
	ReplyTagNotRequired    ReplyTag = "N"
)

// ParseReplyTag returns the ReplyTag matching s.
func ParseReplyTag(s string) (ReplyTag, error) {
	switch t := ReplyTag(strings.ToUpper(s)); t {
	case ReplyTagWilcoUnable, ReplyTagAffirmNegative, ReplyTagRoger,
		ReplyTagNotEnabled, ReplyTagRequired, ReplyTagNotRequired:
		return t, nil
	}
	return "", fmt.Errorf("unknown reply tag %q", s)
}

// String returns the wire value, e.g. "WU".
func (t ReplyTag) String() string {
	return string(t)
}

// Name returns the descriptive name of the tag, for logs.
func (t ReplyTag) Name() string {
	switch t {
	case ReplyTagWilcoUnable:
		return "WILCO_UNABLE"
	case ReplyTagAffirmNegative:
		return "AFFIRM_NEGATIVE"
	case ReplyTagRoger:
		return "ROGER"
	case ReplyTagNotEnabled:
		return "NOT_ENABLED"
	case ReplyTagRequired:
		return "REQUIRED"
	case ReplyTagNotRequired:
		return "NOT_REQUIRED"
	default:
		return "UNKNOWN"
	}
}

// CPDLC is the datalink record of an envelope of type cpdlc.
type CPDLC struct {
	DataTag   string
	MessageID int
	ReplyToID int // Zero when the message opens an exchange.
	ReplyTag  ReplyTag

	mu      sync.Mutex
	replied bool
	reply   string
}

// RequiresReply reports whether the sender expects an answer.
func (c *CPDLC) RequiresReply() bool {
	return c.ReplyTag != ReplyTagNotRequired
}

// Replied reports whether Reply has succeeded for this message.
func (c *CPDLC) Replied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replied
}

// ReplyPayload returns the packet built by the successful Reply call, if any.
func (c *CPDLC) ReplyPayload() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reply
}

// Reply builds the packet answering this message. status selects between the
// positive and negative answer allowed by the reply tag. A message can only
// be replied once.
func (c *CPDLC) Reply(seq *Sequencer, status bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replied {
		return "", errors.Wrapf(ErrAlreadyReplied, "message %d", c.MessageID)
	}
	text, err := ReplyText(c.ReplyTag, status)
	if err != nil {
		return "", errors.Wrapf(err, "message %d", c.MessageID)
	}
	c.reply = FormatPayload(seq.Next(), c.MessageID, ReplyTagNotRequired, text)
	c.replied = true
	return c.reply, nil
}

// ReplyText returns the answer vocabulary of a reply tag.
func ReplyText(tag ReplyTag, status bool) (string, error) {
	switch tag {
	case ReplyTagWilcoUnable:
		if status {
			return "WILCO", nil
		}
		return "UNABLE", nil
	case ReplyTagAffirmNegative:
		if status {
			return "AFFIRM", nil
		}
		return "NEGATIVE", nil
	case ReplyTagRoger:
		return "ROGER", nil
	}
	return "", errors.Wrapf(ErrCantReply, "reply tag %s", tag)
}

func (c *CPDLC) String() string {
	return fmt.Sprintf("message_id=%d, reply_id=%d, reply_tag=%s", c.MessageID, c.ReplyToID, c.ReplyTag)
}

// FormatPayload builds a cpdlc packet. A zero replyTo leaves the field empty.
func FormatPayload(id, replyTo int, tag ReplyTag, text string) string {
	var ref string
	if replyTo != 0 {
		ref = strconv.Itoa(replyTo)
	}
	return fmt.Sprintf("/%s/%d/%s/%s/%s", DataTag, id, ref, string(tag), text)
}

// ReplyTextOf returns the free text of a cpdlc packet.
func ReplyTextOf(payload string) string {
	if i := strings.LastIndex(payload, "/"); i >= 0 {
		return payload[i+1:]
	}
	return payload
}

// parseCPDLC decodes "/<dataTag>/<id>/<replyTo>/<replyTag>/<text>". The body
// may still be wrapped in one brace layer, and so may the text.
func parseCPDLC(body string) (*CPDLC, string, error) {
	body = unwrap(strings.TrimSpace(body))
	fields := strings.SplitN(body, "/", 6)
	if len(fields) < 6 || fields[0] != "" {
		return nil, "", fmt.Errorf("five slash-delimited fields expected, got %q", body)
	}
	id, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, "", fmt.Errorf("invalid message id %q", fields[2])
	}
	var replyTo int
	if fields[3] != "" {
		if replyTo, err = strconv.Atoi(fields[3]); err != nil {
			return nil, "", fmt.Errorf("invalid reply id %q", fields[3])
		}
	}
	tag, err := ParseReplyTag(fields[4])
	if err != nil {
		return nil, "", err
	}
	record := &CPDLC{
		DataTag:   fields[1],
		MessageID: id,
		ReplyToID: replyTo,
		ReplyTag:  tag,
	}
	return record, unwrap(fields[5]), nil
}

func unwrap(s string) string {
	if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
		return s[1 : len(s)-1]
	}
	return s
}
