package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New()

	_, ok := s.Get("example.com")
	assert.False(t, ok)

	s.Set("example.com", "https://logo/example.png")
	v, ok := s.Get("example.com")
	assert.True(t, ok)
	assert.Equal(t, "https://logo/example.png", v)

	s.Set("example.com", "https://logo/other.png")
	v, _ = s.Get("example.com")
	assert.Equal(t, "https://logo/other.png", v)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(fmt.Sprintf("d%d.com", i%5), "logo")
			s.Get("d0.com")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := New()
	s.Set("a.com", "x")

	snap := s.Snapshot()
	snap["b.com"] = "y"

	assert.Equal(t, 1, s.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "example.com", Key(" WWW.Example.COM "))
	assert.Equal(t, "news.example.com", Key("news.example.com"))
}
