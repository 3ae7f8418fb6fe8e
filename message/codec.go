package message

import (
	"regexp"
	"strings"
)

var (
	// splitPattern matches the nested form first so the inner braces of a
	// cpdlc body are not taken as a second envelope.
	splitPattern = regexp.MustCompile(`\{[^{}]*\{[^{}]*\}[^{}]*\}|\{[^{}]*\}`)

	// dataPattern matches the brace layer wrapping non-cpdlc payloads.
	dataPattern = regexp.MustCompile(`\{[^{}]*\}`)
)

// Parse splits the body of a relay response into envelopes, preserving their
// order. Text outside braces (e.g. the leading "ok") is ignored.
func Parse(text string) ([]*Envelope, error) {
	matches := splitPattern.FindAllString(text, -1)
	envelopes := make([]*Envelope, 0, len(matches))
	for _, m := range matches {
		env, err := parseEnvelope(m)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

// parseEnvelope decodes a single "{station type body}" group.
func parseEnvelope(raw string) (*Envelope, error) {
	inner := raw[1 : len(raw)-1]
	fields := strings.SplitN(strings.TrimSpace(inner), " ", 3)
	if len(fields) < 2 {
		return nil, parseErrorf(raw, "station and packet type expected")
	}
	t, err := ParsePacketType(fields[1])
	if err != nil {
		return nil, parseErrorf(raw, "%v", err)
	}
	var body string
	if len(fields) == 3 {
		body = fields[2]
	}

	if t == PacketTypeCPDLC {
		record, text, err := parseCPDLC(body)
		if err != nil {
			return nil, parseErrorf(raw, "%v", err)
		}
		env := NewEnvelope(fields[0], t, text, DirectionIn)
		env.CPDLC = record
		return env, nil
	}

	payload := strings.TrimSpace(body)
	if data := dataPattern.FindString(body); data != "" {
		payload = data[1 : len(data)-1]
	}
	return NewEnvelope(fields[0], t, payload, DirectionIn), nil
}
