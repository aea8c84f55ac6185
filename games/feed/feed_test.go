/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/kanarace/games/match"
)

func TestEncode(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	now := time.Date(2026, time.May, 4, 10, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	winner := match.PlayerView{ID: "p1", Name: "Aki", IsHost: true, Score: 10}

	msg, err := encode("kanarace", id, now, match.Result{
		RoomID: "AB12CD",
		Winner: &winner,
		Players: []match.FinalPlayer{{
			PlayerView: winner,
			FinalStats: match.FinalStats{Score: 10, Accuracy: 97.5, KPM: 220, TrueKPM: 260, AvgReaction: 310},
		}},
		Rounds: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "kanarace.match.finished", msg.Subject)
	assert.Equal(t, "MatchFinished", msg.Header.Get("Event-Type"))
	assert.Equal(t, "AB12CD", msg.Header.Get("Room-ID"))
	assert.Equal(t, id.String(), msg.Header.Get("Event-ID"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &got))

	assert.Equal(t, id.String(), got["eventId"])
	assert.Equal(t, "MatchFinished", got["eventType"])
	assert.Equal(t, "AB12CD", got["roomId"])
	assert.Equal(t, "2026-05-04T01:30:00Z", got["timestamp"])

	payload, ok := got["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 10.0, payload["rounds"])
	assert.Equal(t, false, payload["forcedByHost"])
	assert.Equal(t, "Aki", payload["winner"].(map[string]any)["name"])
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, (&Publisher{}).Close())
}
