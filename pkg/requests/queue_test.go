package requests

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdersByUrgency(t *testing.T) {
	q := NewQueue(10)
	for i, u := range []int{3, 9, 1, 7, 10, 5} {
		require.NoError(t, q.Insert(New(i, "c", u, 10)))
	}

	var got []int
	for !q.IsEmpty() {
		req, err := q.ExtractMostUrgent()
		require.NoError(t, err)
		got = append(got, req.Urgency)
	}
	assert.Equal(t, []int{10, 9, 7, 5, 3, 1}, got)
}

func TestQueueHeapOrderingRandom(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for trial := 0; trial < 100; trial++ {
		q := NewQueue(200)
		count := r.Intn(200)
		for i := 0; i < count; i++ {
			require.NoError(t, q.Insert(New(i, "c", MinUrgency+r.Intn(MaxUrgency), 1)))
		}
		require.Equal(t, count, q.Len())

		prev := MaxUrgency + 1
		for !q.IsEmpty() {
			req, err := q.ExtractMostUrgent()
			require.NoError(t, err)
			require.LessOrEqual(t, req.Urgency, prev)
			prev = req.Urgency
		}
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Insert(New(0, "a", 1, 1)))
	require.NoError(t, q.Insert(New(1, "b", 2, 1)))

	err := q.Insert(New(2, "c", 10, 1))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())

	top, err := q.ExtractMostUrgent()
	require.NoError(t, err)
	assert.Equal(t, "b", top.CityName)
}

func TestQueueEmpty(t *testing.T) {
	q := NewQueue(1)
	assert.True(t, q.IsEmpty())
	_, err := q.ExtractMostUrgent()
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestPendingDoesNotConsume(t *testing.T) {
	q := NewQueue(5)
	require.NoError(t, q.Insert(New(0, "a", 2, 1)))
	require.NoError(t, q.Insert(New(1, "b", 8, 1)))
	require.NoError(t, q.Insert(New(2, "c", 5, 1)))

	pending := q.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{pending[0].CityName, pending[1].CityName, pending[2].CityName})
	assert.Equal(t, 3, q.Len())
}

func TestNewRequest(t *testing.T) {
	a := New(4, "Pune", 6, 250)
	b := New(4, "Pune", 6, 250)

	assert.Equal(t, Pending, a.Status)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStatusJSON(t *testing.T) {
	for _, s := range []Status{Pending, InTransit, Completed, Failed} {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Equal(t, `"`+s.String()+`"`, string(b))

		var back Status
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, s, back)
	}

	_, err := ParseStatus("LOST")
	assert.Error(t, err)
	assert.Equal(t, "Status(9)", Status(9).String())
}
