//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"eligibility/internal/cra/models"
	"eligibility/internal/cra/publisher"
	"eligibility/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "cra.snapshots.test"

	p, err := publisher.NewKafka(s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	defer func() { s.NoError(p.Close(context.Background())) }()

	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	snap := &models.Snapshot{
		ResolvedAt:  time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC),
		Geography:   models.GeoResolution{FullTractFIPS: "13217100602"},
		DataQuality: models.NewDataQuality(true, false, true),
	}
	s.Require().NoError(p.PublishSnapshot(ctx, "key", snap))
	s.Require().NoError(p.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("13217100602", string(records[0].Key))

	var event publisher.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &event))
	s.Equal(publisher.EventSnapshotResolved, event.Type)
	s.Equal("key", event.CacheKey)
	s.False(event.Snapshot.DataQuality.FullDataAvailable)
}
