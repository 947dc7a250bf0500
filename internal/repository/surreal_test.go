package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeonarno/Alyra-blockquest/internal/database"
)

// fakeSurreal answers the three query shapes the backend issues.
type fakeSurreal struct {
	docs     map[string]string // "table:key" -> document
	executed []string
	vars     []map[string]interface{}
}

func (f *fakeSurreal) Connect(ctx context.Context) error { return nil }
func (f *fakeSurreal) Close() error                      { return nil }
func (f *fakeSurreal) Ping(ctx context.Context) error    { return nil }

func (f *fakeSurreal) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	tb, _ := vars["tb"].(string)
	rows := make([]interface{}, 0)
	for k, doc := range f.docs {
		if strings.HasPrefix(k, tb+":") {
			rows = append(rows, doc)
		}
	}
	return []interface{}{map[string]interface{}{"status": "OK", "result": rows}}, nil
}

func (f *fakeSurreal) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	doc, ok := f.docs[vars["tb"].(string)+":"+vars["id"].(string)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return doc, nil
}

func (f *fakeSurreal) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	f.executed = append(f.executed, query)
	f.vars = append(f.vars, vars)
	return nil
}

func TestSurrealBackend_Get(t *testing.T) {
	db := &fakeSurreal{docs: map[string]string{"team:1": `{"id":1,"name":"Alpha"}`}}
	backend := NewSurrealBackend(db)

	data, err := backend.Get(context.Background(), TableTeam, "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Alpha"}`, string(data))

	_, err = backend.Get(context.Background(), TableTeam, "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSurrealBackend_List(t *testing.T) {
	db := &fakeSurreal{docs: map[string]string{
		"team:1":   `{"id":1}`,
		"team:2":   `{"id":2}`,
		"player:x": `{}`,
	}}

	rows, err := NewSurrealBackend(db).List(context.Background(), TableTeam)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSurrealBackend_CommitIsOneTransaction(t *testing.T) {
	db := &fakeSurreal{}
	backend := NewSurrealBackend(db)

	err := backend.Commit(context.Background(), []Write{
		{Table: TableTeam, Key: "1", Data: []byte(`{"id":1}`)},
		{Table: TableCounter, Key: "team", Data: []byte(`2`)},
	})
	require.NoError(t, err)

	require.Len(t, db.executed, 1)
	assert.True(t, strings.HasPrefix(db.executed[0], "BEGIN TRANSACTION;"))
	assert.True(t, strings.HasSuffix(db.executed[0], "COMMIT TRANSACTION;"))
	assert.Equal(t, "team", db.vars[0]["s0_tb"])
	assert.Equal(t, "2", db.vars[0]["s1_data"])
}

func TestSurrealBackend_EnsureSchema(t *testing.T) {
	db := &fakeSurreal{}
	require.NoError(t, NewSurrealBackend(db).EnsureSchema(context.Background()))

	require.Len(t, db.executed, 1)
	for _, table := range Tables {
		assert.Contains(t, db.executed[0], "DEFINE TABLE IF NOT EXISTS "+string(table))
	}
}
