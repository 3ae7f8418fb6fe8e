package message_test

import (
	"fmt"
	"testing"

	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseOne(t *testing.T, text string) *message.Envelope {
	t.Helper()
	envs, err := message.Parse(text)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	return envs[0]
}

func TestReply(t *testing.T) {
	tests := map[string]struct {
		tag    string
		status bool
		want   string
	}{
		"Wilco":                {tag: "WU", status: true, want: "WILCO"},
		"Unable":               {tag: "WU", status: false, want: "UNABLE"},
		"Affirm":               {tag: "AN", status: true, want: "AFFIRM"},
		"Negative":             {tag: "AN", status: false, want: "NEGATIVE"},
		"Roger":                {tag: "R", status: true, want: "ROGER"},
		"Roger ignores status": {tag: "R", status: false, want: "ROGER"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			seq := message.NewSequencer()
			env := mustParseOne(t, fmt.Sprintf("{ZSHA cpdlc {/data2/40//%s/DESCEND TO FL240}}", tc.tag))
			seq.Observe(env.CPDLC.MessageID)

			payload, err := env.CPDLC.Reply(seq, tc.status)

			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("/data2/41/40/N/%s", tc.want), payload)
			assert.Equal(t, tc.want, message.ReplyTextOf(payload))
			assert.True(t, env.CPDLC.Replied())
			assert.Equal(t, payload, env.CPDLC.ReplyPayload())
		})
	}
}

func TestReplyNotAllowed(t *testing.T) {
	for _, tag := range []string{"N", "NE", "Y"} {
		env := mustParseOne(t, fmt.Sprintf("{ZSHA cpdlc {/data2/5//%s/MONITOR 121.5}}", tag))

		_, err := env.CPDLC.Reply(message.NewSequencer(), true)

		assert.True(t, errors.Is(err, message.ErrCantReply), "tag %s: %v", tag, err)
		assert.False(t, env.CPDLC.Replied())
	}
}

func TestReplyTwice(t *testing.T) {
	seq := message.NewSequencer()
	env := mustParseOne(t, "{ZSHA cpdlc {/data2/9//WU/CLIMB TO FL350}}")
	seq.Observe(env.CPDLC.MessageID)

	first, err := env.CPDLC.Reply(seq, true)
	require.NoError(t, err)

	_, err = env.CPDLC.Reply(seq, false)
	assert.True(t, errors.Is(err, message.ErrAlreadyReplied))
	assert.Equal(t, first, env.CPDLC.ReplyPayload())
	assert.Equal(t, 10, seq.Last(), "failed reply must not allocate an identifier")
}

func TestReplyRoundTrip(t *testing.T) {
	seq := message.NewSequencer()
	env := mustParseOne(t, "{ZSHA cpdlc {/data2/77//AN/CONFIRM SQUAWK}}")
	payload, err := env.CPDLC.Reply(seq, false)
	require.NoError(t, err)

	echoed := mustParseOne(t, fmt.Sprintf("{CES2352 cpdlc {%s}}", payload))

	assert.Equal(t, 77, echoed.CPDLC.ReplyToID)
	assert.Equal(t, message.ReplyTagNotRequired, echoed.CPDLC.ReplyTag)
	assert.False(t, echoed.CPDLC.RequiresReply())
	assert.Equal(t, "NEGATIVE", echoed.Payload)
}

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "/data2/3//Y/REQUEST LOGON", message.FormatPayload(3, 0, message.ReplyTagRequired, "REQUEST LOGON"))
	assert.Equal(t, "/data2/4/2/N/WILCO", message.FormatPayload(4, 2, message.ReplyTagNotRequired, "WILCO"))
}

func TestReplyTagWireValue(t *testing.T) {
	tests := map[message.ReplyTag]string{
		message.ReplyTagWilcoUnable:    "WILCO_UNABLE",
		message.ReplyTagAffirmNegative: "AFFIRM_NEGATIVE",
		message.ReplyTagRoger:          "ROGER",
		message.ReplyTagNotEnabled:     "NOT_ENABLED",
		message.ReplyTagRequired:       "REQUIRED",
		message.ReplyTagNotRequired:    "NOT_REQUIRED",
	}
	for tag, name := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, string(tag), tag.String())
			assert.Equal(t, name, tag.Name())

			payload := message.FormatPayload(5, 4, tag, "TEXT")
			assert.Equal(t, fmt.Sprintf("/data2/5/4/%s/TEXT", string(tag)), payload)

			env := mustParseOne(t, fmt.Sprintf("{ZSHA cpdlc {%s}}", payload))
			assert.Equal(t, tag, env.CPDLC.ReplyTag)
		})
	}
}

func TestReplyPayloadParses(t *testing.T) {
	seq := message.NewSequencer()
	seq.Observe(40)
	env := mustParseOne(t, "{ZSHA cpdlc {/data2/40//WU/DESCEND TO FL240}}")

	payload, err := env.CPDLC.Reply(seq, true)

	require.NoError(t, err)
	assert.Equal(t, "/data2/41/40/N/WILCO", payload)
	_, err = message.Parse(fmt.Sprintf("ok {CES2352 cpdlc {%s}}", payload))
	assert.NoError(t, err)
}
