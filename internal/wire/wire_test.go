package wire

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
)

func TestDecodeInbound_AllVariants(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Inbound
	}{
		{
			name: "Start",
			line: `{"tag":"Start","dependencies":{"button":{"text":{}}}}`,
			want: Inbound{Tag: TagStart, Start: &StartPayload{
				Dependencies: Dependencies{"button": jsonvalue.Map(map[string]jsonvalue.Value{
					"text": jsonvalue.Map(map[string]jsonvalue.Value{}),
				})},
			}},
		},
		{
			name: "RequestAction",
			line: `{"tag":"RequestAction","action":{"id":"click","args":["E1"],"isEvent":false},"version":1}`,
			want: Inbound{Tag: TagRequestAction, RequestAction: &RequestActionPayload{
				Action:  Action{ID: "click", Args: []jsonvalue.Value{jsonvalue.String("E1")}, IsEvent: false},
				Version: 1,
			}},
		},
		{
			name: "AwaitEvents",
			line: `{"tag":"AwaitEvents","version":3,"await_timeout":500}`,
			want: Inbound{Tag: TagAwaitEvents, AwaitEvents: &AwaitEventsPayload{Version: 3, AwaitTimeout: 500}},
		},
		{
			name: "End",
			line: `{"tag":"End"}`,
			want: Inbound{Tag: TagEnd, End: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tc.line))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeInbound_UnknownTagIsFatal(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"tag":"Bogus"}`))
	require.Error(t, err)
}

func TestDecodeInbound_MissingTagIsFatal(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"id":"click"}`))
	require.Error(t, err)
}

func TestOutbound_EncodeSetsTag(t *testing.T) {
	state := State{
		"button": {ElementState{"ref": jsonvalue.String("E1"), "text": jsonvalue.String("Go")}},
	}

	msgs := []Outbound{
		PerformedMsg{State: state},
		TimeoutMsg{State: state},
		StaleMsg{},
		EventsMsg{Events: []Action{{ID: "changed", IsEvent: true}}, State: state},
	}

	for _, m := range msgs {
		line, err := m.EncodeOutbound()
		require.NoError(t, err)

		var env envelope
		require.NoError(t, json.Unmarshal(line, &env))

		switch m.(type) {
		case PerformedMsg:
			require.Equal(t, TagPerformed, env.Tag)
		case TimeoutMsg:
			require.Equal(t, TagTimeout, env.Tag)
		case StaleMsg:
			require.Equal(t, TagStale, env.Tag)
		case EventsMsg:
			require.Equal(t, TagEvents, env.Tag)
		}
	}
}

func TestCodec_RoundTripsLines(t *testing.T) {
	var buf bytes.Buffer
	codec := NewCodec(&buf, &buf)

	require.NoError(t, codec.WriteOutbound(StaleMsg{}))
	require.NoError(t, codec.WriteOutbound(PerformedMsg{State: State{}}))

	// A fresh reader side sees exactly what was written, one line per message.
	reader := NewCodec(bytes.NewReader(buf.Bytes()), &bytes.Buffer{})
	line1, err := reader.scanLine()
	require.NoError(t, err)
	require.Contains(t, line1, `"tag":"Stale"`)

	line2, err := reader.scanLine()
	require.NoError(t, err)
	require.Contains(t, line2, `"tag":"Performed"`)
}

func (c *Codec) scanLine() (string, error) {
	if !c.scanner.Scan() {
		return "", c.scanner.Err()
	}
	return c.scanner.Text(), nil
}
