package message_test

import (
	"testing"

	"github.com/JiscSD/cpdlc-channel-adapter/internal/testutil"
	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedCPDLC(t *testing.T) {
	envs, err := message.Parse("{STA CPDLC /data2/1//Y/{RADAR CONTACT}}")

	require.NoError(t, err)
	require.Len(t, envs, 1)
	env := envs[0]
	assert.Equal(t, "STA", env.Station)
	assert.Equal(t, message.PacketTypeCPDLC, env.Type)
	assert.Equal(t, message.DirectionIn, env.Direction)
	assert.Equal(t, "RADAR CONTACT", env.Payload)
	require.True(t, env.IsCPDLC())
	assert.Equal(t, "data2", env.CPDLC.DataTag)
	assert.Equal(t, 1, env.CPDLC.MessageID)
	assert.Equal(t, 0, env.CPDLC.ReplyToID)
	assert.Equal(t, message.ReplyTagRequired, env.CPDLC.ReplyTag)
	assert.False(t, env.CPDLC.Replied())
}

func TestParseFixture(t *testing.T) {
	envs, err := message.Parse(testutil.RelayFixture(t, "poll_mixed.txt"))

	require.NoError(t, err)
	require.Len(t, envs, 3)

	assert.Equal(t, "SERVER", envs[0].Station)
	assert.Equal(t, message.PacketTypeTelex, envs[0].Type)
	assert.Equal(t, "WELCOME TO THE RELAY", envs[0].Payload)
	assert.Nil(t, envs[0].CPDLC)

	assert.Equal(t, "CURRENT ATC UNIT@_@ZSHA@_@SHANGHAI", envs[1].Payload)
	assert.Equal(t, 12, envs[1].CPDLC.MessageID)
	assert.Equal(t, message.ReplyTagNotEnabled, envs[1].CPDLC.ReplyTag)

	assert.Equal(t, "CLIMB TO @FL350@", envs[2].Payload)
	assert.Equal(t, 13, envs[2].CPDLC.MessageID)
	assert.Equal(t, message.ReplyTagWilcoUnable, envs[2].CPDLC.ReplyTag)
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		input    string
		stations []string
		payloads []string
		wantErr  bool
	}{
		"Empty response": {
			input: "ok",
		},
		"Simple envelopes keep their order": {
			input:    "ok {A telex {one}} {B telex {two}}",
			stations: []string{"A", "B"},
			payloads: []string{"one", "two"},
		},
		"Envelope without inner braces is not merged with the next one": {
			input:    "{A progress EDDF} {B telex {two}}",
			stations: []string{"A", "B"},
			payloads: []string{"EDDF", "two"},
		},
		"Packet type is case insensitive": {
			input:    "{SERVER TELEX {hello}}",
			stations: []string{"SERVER"},
			payloads: []string{"hello"},
		},
		"Unknown packet type": {
			input:   testutil.RelayFixture(t, "unknown_type.txt"),
			wantErr: true,
		},
		"Missing packet type": {
			input:   "{SERVER}",
			wantErr: true,
		},
		"CPDLC body with too few fields": {
			input:   "{ZSHA cpdlc {/data2/1/Y/HELLO}}",
			wantErr: true,
		},
		"CPDLC body with a non numeric id": {
			input:   "{ZSHA cpdlc {/data2/x//Y/HELLO}}",
			wantErr: true,
		},
		"CPDLC body with an unknown reply tag": {
			input:   "{ZSHA cpdlc {/data2/1//ZZ/HELLO}}",
			wantErr: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			envs, err := message.Parse(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				_, ok := err.(*message.ParseError)
				assert.True(t, ok, "expected *message.ParseError, got %T", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, envs, len(tc.stations))
			for i, env := range envs {
				assert.Equal(t, tc.stations[i], env.Station)
				assert.Equal(t, tc.payloads[i], env.Payload)
			}
		})
	}
}

func TestParseCPDLCTextWithSlashes(t *testing.T) {
	envs, err := message.Parse("{ZSHA cpdlc {/data2/7/3/R/EXPECT RWY 36L/36R}}")

	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "EXPECT RWY 36L/36R", envs[0].Payload)
	assert.Equal(t, 3, envs[0].CPDLC.ReplyToID)
	assert.Equal(t, message.ReplyTagRoger, envs[0].CPDLC.ReplyTag)
}

func TestEnvelopeHash(t *testing.T) {
	a := message.NewEnvelope("ZSHA", message.PacketTypeTelex, "HELLO", message.DirectionOut)
	b := *a
	c := *a
	c.Payload = "BYE"

	assert.Len(t, a.Hash(), 32)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestParsePacketType(t *testing.T) {
	pt, err := message.ParsePacketType("INFOREQ")
	require.NoError(t, err)
	assert.Equal(t, message.PacketTypeInfoReq, pt)
	assert.Equal(t, "INFOREQ", pt.String())

	_, err = message.ParsePacketType("fax")
	assert.Error(t, err)
}
