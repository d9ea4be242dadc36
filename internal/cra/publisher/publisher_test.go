package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligibility/internal/cra/models"
)

func resolvedSnapshot() *models.Snapshot {
	return &models.Snapshot{
		EffectiveYear: models.EffectiveYear,
		ResolvedAt:    time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC),
		Geography:     models.GeoResolution{FullTractFIPS: "13217100602", StateFIPS: "13"},
		DataQuality:   models.NewDataQuality(true, true, true),
	}
}

func TestNewEvent(t *testing.T) {
	snap := resolvedSnapshot()
	event := NewEvent("123 main st|covington|ga|30014", snap)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventSnapshotResolved, event.Type)
	assert.Equal(t, "13217100602", event.TractFIPS)
	assert.Equal(t, snap.ResolvedAt, event.OccurredAt)
	assert.Same(t, snap, event.Snapshot)

	other := NewEvent("k", snap)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestEventRecord(t *testing.T) {
	event := NewEvent("k", resolvedSnapshot())

	record, err := event.Record("cra.snapshots")
	require.NoError(t, err)

	assert.Equal(t, "cra.snapshots", record.Topic)
	assert.Equal(t, []byte("13217100602"), record.Key)
	require.Len(t, record.Headers, 1)
	assert.Equal(t, headerEventType, record.Headers[0].Key)
	assert.Equal(t, []byte(EventSnapshotResolved), record.Headers[0].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, "13217100602", decoded["tractFips"])
	assert.Contains(t, decoded, "snapshot")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishSnapshot(context.Background(), "k", resolvedSnapshot()))
}

func TestNewKafkaValidation(t *testing.T) {
	_, err := NewKafka(nil, "cra.snapshots")
	assert.Error(t, err)

	_, err = NewKafka([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}

func TestPublishNilSnapshot(t *testing.T) {
	p, err := NewKafka([]string{"localhost:9092"}, "cra.snapshots")
	require.NoError(t, err)
	defer p.client.Close()

	assert.Error(t, p.PublishSnapshot(context.Background(), "k", nil))
}
