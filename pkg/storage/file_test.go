package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON_MissingFile(t *testing.T) {
	var v []string
	exists, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &v)

	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, v)
}

func TestReadJSON_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	var v []string
	exists, err := ReadJSON(path, &v)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, v)
}

func TestReadJSON_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))

	var v []map[string]any
	exists, err := ReadJSON(path, &v)

	assert.True(t, exists)
	assert.Error(t, err)
}

func TestWriteJSONAtomic_CreatesParentsAndIndents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "catalog.json")

	require.NoError(t, WriteJSONAtomic(context.Background(), path, []map[string]int{{"x": 1}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"x\": 1\n  }\n]\n", string(data))

	var back []map[string]int
	exists, err := ReadJSON(path, &back)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, back[0]["x"])
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")

	require.NoError(t, WriteFileAtomic(context.Background(), path, []byte("one\n")))
	require.NoError(t, WriteFileAtomic(context.Background(), path, []byte("two\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.csv", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(data))
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("catalog.json")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, km.locks, "released keys are removed")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
