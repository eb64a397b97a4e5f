package sink

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id int64, p float64, tier risk.Tier) monitor.Scored {
	return monitor.Scored{
		Customer:   domain.Customer{ID: id, Name: "c"},
		Assessment: risk.Assessment{Probability: p, Tier: tier},
	}
}

func TestHighRiskMembersRoundTrip(t *testing.T) {
	members := highRiskMembers([]monitor.Scored{scored(3, 0.91, risk.TierHigh), scored(12, 0.64, risk.TierHigh)})
	require.Len(t, members, 2)
	assert.Equal(t, "3", members[0].Member)

	ranked := rankedFromZ(append(members, redis.Z{Member: "not-a-number", Score: 1}))
	assert.Equal(t, []RankedCustomer{{CustomerID: 3, Probability: 0.91}, {CustomerID: 12, Probability: 0.64}}, ranked)
}

func TestSummarizeIncludesEveryTier(t *testing.T) {
	summary := summarize(monitor.PassResult{
		PassID: "p1",
		Total:  2,
		Tiers:  map[risk.Tier]int{risk.TierHigh: 2},
	})
	assert.Equal(t, map[string]int{"HIGH RISK": 2, "MEDIUM RISK": 0, "LOW RISK": 0}, summary.Tiers)
}

func TestAssessmentKey(t *testing.T) {
	assert.Equal(t, "churnwatch:risk:customer:42", assessmentKey(42))
}

func TestNewRedisSinkDefaults(t *testing.T) {
	assert.Nil(t, NewRedisSink(nil, time.Minute))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	s := NewRedisSink(client, 0)
	assert.Equal(t, 10*time.Minute, s.ttl)
}

func TestPublishSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	err := NewRedisSink(client, time.Minute).Publish(context.Background(), monitor.PassResult{
		PassID: "p1",
		Scored: []monitor.Scored{scored(1, 0.7, risk.TierHigh)},
	})
	assert.Error(t, err)
}

func TestProvideReaderIgnoresOtherSinks(t *testing.T) {
	assert.Nil(t, ProvideReader(nil))
}
