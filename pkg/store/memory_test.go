package store_test

import (
	"testing"

	"github.com/matzehuels/orgchart/pkg/store"
	"github.com/matzehuels/orgchart/pkg/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}
