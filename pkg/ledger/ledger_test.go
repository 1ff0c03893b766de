package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/requests"
)

func TestHash(t *testing.T) {
	// "ab" = 97*31 + 98 = 3105.
	assert.Equal(t, 3105%50, Hash("ab", 50))
	assert.Equal(t, 0, Hash("", 50))
	assert.Equal(t, Hash("Mumbai", 50), Hash("Mumbai", 50))

	for _, key := range []string{"Pune", "Nagpur", "Thane", "a very long city name that overflows the hash"} {
		h := Hash(key, 7)
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, 7)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	l := New(0)
	l.Upsert("Mumbai", requests.Pending, 0, SupportNone, 0)
	l.Upsert("Mumbai", requests.InTransit, 300, "Pune", 150)

	assert.Equal(t, 1, l.Len())
	require.Len(t, l.All(), 1)

	e, ok := l.Get("Mumbai")
	require.True(t, ok)
	assert.Equal(t, Entry{City: "Mumbai", Status: requests.InTransit, Allocated: 300, Support: "Pune", Distance: 150}, e)
}

func TestCollisionsKeepEntriesApart(t *testing.T) {
	// One bucket forces every key into the same chain.
	l := New(1)
	for i := 0; i < 10; i++ {
		l.Upsert(fmt.Sprintf("city-%d", i), requests.Pending, i, SupportNone, 0)
	}
	l.Upsert("city-4", requests.Failed, 40, SupportPartial, 0)

	assert.Equal(t, 10, l.Len())
	for i := 0; i < 10; i++ {
		e, ok := l.Get(fmt.Sprintf("city-%d", i))
		require.True(t, ok)
		if i == 4 {
			assert.Equal(t, requests.Failed, e.Status)
			assert.Equal(t, 40, e.Allocated)
			continue
		}
		assert.Equal(t, i, e.Allocated)
	}

	// New keys are prepended to the chain.
	all := l.All()
	assert.Equal(t, "city-9", all[0].City)
	assert.Equal(t, "city-0", all[9].City)
}

func TestGetMissing(t *testing.T) {
	l := New(10)
	_, ok := l.Get("Nowhere")
	assert.False(t, ok)
}

func TestSetStatus(t *testing.T) {
	l := New(10)
	l.Upsert("Thane", requests.InTransit, 120, SupportMultiple, 0)

	require.NoError(t, l.SetStatus("Thane", requests.Completed))
	e, _ := l.Get("Thane")
	assert.Equal(t, requests.Completed, e.Status)
	assert.Equal(t, 120, e.Allocated)
	assert.Equal(t, SupportMultiple, e.Support)

	err := l.SetStatus("Nowhere", requests.Completed)
	assert.ErrorIs(t, err, ErrNotFound)
}
