package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

var (
	gm     = model.MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	player = model.MustParseAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func event(seq uint64, typ model.EventType, actor model.Address, topic string) model.Event {
	data, _ := json.Marshal(map[string]uint64{"seq": seq})
	return model.Event{
		ID:         "evt-" + string(rune('a'+seq)),
		Sequence:   seq,
		Type:       typ,
		Actor:      actor,
		Topic:      topic,
		Data:       data,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, int(seq), 0, time.UTC),
	}
}

func TestJournal_PublishAndList(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	j.Publish(ctx, []model.Event{
		event(1, model.EventTeamCreated, gm, "team:1"),
		event(2, model.EventTeamJoined, player, "team:1"),
	})
	j.Publish(ctx, []model.Event{event(3, model.EventSessionStarted, gm, "session:1")})
	require.NoError(t, j.Flush(ctx))

	all, err := j.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.EventTeamCreated, all[0].Type)
	assert.Equal(t, uint64(3), all[2].Sequence)
	assert.JSONEq(t, `{"seq":2}`, string(all[1].Data))
	assert.True(t, all[0].OccurredAt.Equal(time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)))

	byTopic, err := j.List(ctx, Query{Topic: "team:1"})
	require.NoError(t, err)
	assert.Len(t, byTopic, 2)

	byActor, err := j.List(ctx, Query{Actor: gm, AfterSequence: 1})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, uint64(3), byActor[0].Sequence)
}

func TestJournal_DuplicateSequenceIgnored(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	j.Publish(ctx, []model.Event{event(1, model.EventTeamCreated, gm, "team:1")})
	j.Publish(ctx, []model.Event{event(1, model.EventTeamCreated, gm, "team:1")})
	require.NoError(t, j.Flush(ctx))

	all, err := j.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJournal_ReopenKeepsEventsAndSkipsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path, nil)
	require.NoError(t, err)
	j.Publish(ctx, []model.Event{event(1, model.EventDiplomaMinted, gm, "diploma:0")})
	require.NoError(t, j.Close())

	j, err = Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	all, err := j.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.EventDiplomaMinted, all[0].Type)
}

func TestJournal_PublishRacingClose(t *testing.T) {
	ctx := context.Background()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				j.Publish(ctx, []model.Event{event(uint64(i*50+n+1), model.EventDiceRolled, player, "session:1")})
			}
		}(i)
	}
	require.NoError(t, j.Close())
	wg.Wait()

	// publishing and flushing after Close are no-ops
	j.Publish(ctx, []model.Event{event(1000, model.EventSessionEnded, gm, "session:1")})
	assert.NoError(t, j.Flush(ctx))
}

func TestExtractUp(t *testing.T) {
	got := extractUp("-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;")
	assert.Equal(t, "\nCREATE TABLE a(x);\n", got)
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}
