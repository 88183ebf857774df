package clientstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Text  string `json:"text"`
	Stars int    `json:"stars"`
}

// v0 stored {"body": "..."}; v1 renamed it to text; v2 added stars.
func noteCodec() *Codec[note] {
	return NewCodec[note](2, map[int]Migration{
		0: func(payload json.RawMessage) (json.RawMessage, error) {
			var legacy struct {
				Body string `json:"body"`
			}
			if err := json.Unmarshal(payload, &legacy); err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{"text": legacy.Body})
		},
		1: func(payload json.RawMessage) (json.RawMessage, error) {
			var v1 map[string]any
			if err := json.Unmarshal(payload, &v1); err != nil {
				return nil, err
			}
			v1["stars"] = 1
			return json.Marshal(v1)
		},
	})
}

func TestCodecRoundTrip(t *testing.T) {
	codec := noteCodec()
	raw, err := codec.Encode(note{Text: "hello", Stars: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"payload":{"text":"hello","stars":3}}`, string(raw))

	got, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, note{Text: "hello", Stars: 3}, got)
}

func TestCodecMigratesLegacyBlob(t *testing.T) {
	got, err := noteCodec().Decode([]byte(`{"body":"legacy"}`))
	require.NoError(t, err)
	assert.Equal(t, note{Text: "legacy", Stars: 1}, got)

	got, err = noteCodec().Decode([]byte(`{"version":1,"payload":{"text":"mid"}}`))
	require.NoError(t, err)
	assert.Equal(t, note{Text: "mid", Stars: 1}, got)
}

func TestCodecRejectsUnknownVersions(t *testing.T) {
	_, err := noteCodec().Decode([]byte(`{"version":9,"payload":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	noMigrations := NewCodec[note](1, nil)
	_, err = noMigrations.Decode([]byte(`{"body":"x"}`))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCodecRejectsCorruptBlob(t *testing.T) {
	_, err := noteCodec().Decode([]byte(`{not json`))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = noteCodec().Decode([]byte(`{"version":2,"payload":{"text":7}}`))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadAndSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	codec := noteCodec()

	_, ok, err := Load(ctx, store, "k", codec)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Save(ctx, store, "k", codec, note{Text: "saved", Stars: 2}))
	got, ok, err := Load(ctx, store, "k", codec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "saved", got.Text)
}

func TestMemoryClosed(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.Close())
	require.ErrorIs(t, store.Put(context.Background(), "k", []byte("v")), ErrClosed)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, KeyCart, []byte(`[1]`)))
	require.NoError(t, store.Put(ctx, KeyCart, []byte(`[1,2]`)))
	require.NoError(t, store.Put(ctx, KeyAuth, []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, KeyAuth))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	value, ok, err := reopened.Get(ctx, KeyCart)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1,2]`, string(value))

	_, ok, err = reopened.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)
}
