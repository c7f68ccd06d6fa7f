package kafka

import (
	"context"
	"testing"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlanRequest(t *testing.T) {
	id := uuid.New()
	req, err := DecodePlanRequest([]byte(`{"trip_request_id":"` + id.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, id, req.TripRequestID)

	_, err = DecodePlanRequest([]byte(`{}`))
	assert.Error(t, err)

	_, err = DecodePlanRequest([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodePlanEvent(t *testing.T) {
	ev, err := DecodePlanEvent([]byte(`{"type":"plan.failed","status":"failed","error":"db down"}`))
	require.NoError(t, err)
	assert.Equal(t, EventPlanFailed, ev.Type)
	assert.Equal(t, domain.TripStatusFailed, ev.Status)
	assert.Equal(t, "db down", ev.Error)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	assert.NotNil(t, p)
	assert.NoError(t, p.Close())
}

func TestNewConsumer(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "group", "topic", nil)
	assert.NotNil(t, c)
	_ = c.Close()

	var nilConsumer *Consumer
	assert.NoError(t, nilConsumer.Close())
}

func TestProducerPing_NoBrokers(t *testing.T) {
	p := NewProducer(nil, nil)
	assert.Error(t, p.Ping(context.Background()))
}
