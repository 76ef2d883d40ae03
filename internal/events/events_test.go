package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookPublisher_SignsBody(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "s3cret", zap.NewNop())
	e := New(TypeBookingCreated, "c1")
	e.BookingID = "b1"

	require.NoError(t, p.Publish(context.Background(), e))

	assert.Equal(t, TypeBookingCreated, gotType)
	assert.Equal(t, Sign([]byte("s3cret"), gotBody), gotSig)
	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "b1", decoded.BookingID)
}

func TestWebhookPublisher_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), New(TypePropertyRetired, "o1")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookPublisher_ClientErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "", zap.NewNop())
	err := p.Publish(context.Background(), New(TypeBookingCreated, "c1"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

type fakeMQTT struct {
	topic    string
	retained bool
	payload  []byte
}

func (f *fakeMQTT) Publish(topic string, _ byte, retained bool, payload []byte) error {
	f.topic, f.retained, f.payload = topic, retained, payload
	return nil
}

func TestMQTTPublisher_Topics(t *testing.T) {
	client := &fakeMQTT{}
	p := NewMQTTPublisher(client, "payguest", 1)

	occupied := true
	e := New(TypeBedOccupancyChanged, "o1")
	e.PropertyID, e.BedID, e.Occupied = "p1", "bed1", &occupied
	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, "payguest/properties/p1/beds/bed1", client.topic)
	assert.True(t, client.retained)

	require.NoError(t, p.Publish(context.Background(), New(TypeBookingCreated, "c1")))
	assert.Equal(t, "payguest/events/booking.created", client.topic)
	assert.False(t, client.retained)
}

type fakeStream struct {
	args *redis.XAddArgs
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1700000000000-0", nil)
}

func TestRedisStreamPublisher(t *testing.T) {
	client := &fakeStream{}
	p := NewRedisStreamPublisher(client, "payguest:events", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), New(TypeBookingStatusChanged, "o1")))
	require.NotNil(t, client.args)
	assert.Equal(t, "payguest:events", client.args.Stream)
	values := client.args.Values.(map[string]interface{})
	assert.Equal(t, TypeBookingStatusChanged, values["type"])
	assert.Contains(t, values["data"], `"type":"booking.status_changed"`)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

type countingPublisher struct{ n int }

func (c *countingPublisher) Publish(context.Context, Event) error { c.n++; return nil }

func TestMultiPublisher_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("broker down")
	counter := &countingPublisher{}
	m := MultiPublisher{failingPublisher{err: boom}, counter, NopPublisher{}}

	err := m.Publish(context.Background(), New(TypeBookingCreated, "c1"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, counter.n)

	assert.NoError(t, MultiPublisher{}.Publish(context.Background(), New(TypeBookingCreated, "c1")))
}
