package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes the same key", func(t *testing.T) {
		k := NewKeyedMutex()
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock(1)
				defer unlock()
				counter++
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, counter)
		assert.Equal(t, 0, k.Len())
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		k := NewKeyedMutex()
		unlockA := k.Lock(1)
		unlockB := k.Lock(2)
		assert.Equal(t, 2, k.Len())
		unlockA()
		unlockB()
		assert.Equal(t, 0, k.Len())
	})
}
