package memory

import (
	"testing"

	"github.com/mmynk/amencash/internal/storage"
	"github.com/mmynk/amencash/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
