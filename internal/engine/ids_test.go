package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{}
	id := gen.Generate()

	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "id should be valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
	const goroutines = 100

	ids := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id generated")
		seen[id] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("a-1", "a-2", "a-3")

	assert.Equal(t, "a-1", gen.Generate())
	assert.Equal(t, "a-2", gen.Generate())
	assert.Equal(t, "a-3", gen.Generate())
	assert.Panics(t, func() { gen.Generate() }, "should panic when all ids are used")
}

func TestFixedGenerator_Empty(t *testing.T) {
	gen := NewFixedGenerator()
	assert.Panics(t, func() { gen.Generate() })
}

func TestEngine_Analyze_UsesIDGenerator(t *testing.T) {
	e, _ := newEnglishEngine(t, WithIDGenerator(NewFixedGenerator("first", "second")))

	assert.Equal(t, "first", e.Analyze("cats").ID)
	assert.Equal(t, "second", e.Analyze("xyzzy").ID)
}

func TestEngine_Analyze_DefaultIDsAreUUIDv7(t *testing.T) {
	e, _ := newEnglishEngine(t)

	parsed, err := uuid.Parse(e.Analyze("cats").ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
