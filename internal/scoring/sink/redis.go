package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyAssessment = "churnwatch:risk:customer:%d"
	keyHighRisk   = "churnwatch:risk:high"
	keyLastPass   = "churnwatch:risk:last_pass"
)

// CachedAssessment is the per-customer value stored under keyAssessment.
type CachedAssessment struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	PassID     string          `json:"pass_id"`
	ScoredAt   time.Time       `json:"scored_at"`
	Assessment risk.Assessment `json:"assessment"`
}

// PassSummary is the value stored under keyLastPass.
type PassSummary struct {
	PassID    string         `json:"pass_id"`
	At        time.Time      `json:"at"`
	Total     int            `json:"total"`
	Predicted int            `json:"predicted"`
	Tiers     map[string]int `json:"tiers"`
}

// RankedCustomer is one entry of the high-risk sorted set.
type RankedCustomer struct {
	CustomerID  int64   `json:"customer_id"`
	Probability float64 `json:"churn_probability"`
}

// RedisSink keeps the latest assessment per customer and a ranked high-risk set.
type RedisSink struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSink(client redis.Cmdable, ttl time.Duration) *RedisSink {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSink{client: client, ttl: ttl}
}

// Provide returns a nil sink when no redis address is configured.
func Provide(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) monitor.Sink {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	log.Named("scoring.sink").Info("redis risk cache enabled",
		zap.String("addr", addr),
		zap.Duration("ttl", cfg.RiskCacheTTL),
	)
	return NewRedisSink(client, cfg.RiskCacheTTL)
}

// Reader exposes cached results; nil when no redis address is configured.
func ProvideReader(s monitor.Sink) *RedisSink {
	if rs, ok := s.(*RedisSink); ok {
		return rs
	}
	return nil
}

var Module = fx.Module("scoring.sink",
	fx.Provide(Provide, ProvideReader),
)

func (s *RedisSink) Publish(ctx context.Context, result monitor.PassResult) error {
	pipe := s.client.TxPipeline()
	for _, scored := range result.Scored {
		value, err := json.Marshal(CachedAssessment{
			CustomerID: scored.Customer.ID,
			Name:       scored.Customer.Name,
			PassID:     result.PassID,
			ScoredAt:   result.At,
			Assessment: scored.Assessment,
		})
		if err != nil {
			return err
		}
		pipe.Set(ctx, assessmentKey(scored.Customer.ID), value, s.ttl)
	}

	pipe.Del(ctx, keyHighRisk)
	if members := highRiskMembers(result.HighRisk); len(members) > 0 {
		pipe.ZAdd(ctx, keyHighRisk, members...)
		pipe.Expire(ctx, keyHighRisk, s.ttl)
	}

	summary, err := json.Marshal(summarize(result))
	if err != nil {
		return err
	}
	pipe.Set(ctx, keyLastPass, summary, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish pass %s: %w", result.PassID, err)
	}
	return nil
}

// Assessment returns the cached assessment for a customer, if still live.
func (s *RedisSink) Assessment(ctx context.Context, customerID int64) (CachedAssessment, bool, error) {
	value, err := s.client.Get(ctx, assessmentKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedAssessment{}, false, nil
	}
	if err != nil {
		return CachedAssessment{}, false, err
	}
	var cached CachedAssessment
	if err := json.Unmarshal(value, &cached); err != nil {
		return CachedAssessment{}, false, err
	}
	return cached, true, nil
}

// HighRisk returns up to limit customers from the last pass, highest probability first.
func (s *RedisSink) HighRisk(ctx context.Context, limit int64) ([]RankedCustomer, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, keyHighRisk, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return rankedFromZ(entries), nil
}

func assessmentKey(customerID int64) string {
	return fmt.Sprintf(keyAssessment, customerID)
}

func highRiskMembers(scored []monitor.Scored) []redis.Z {
	members := make([]redis.Z, 0, len(scored))
	for _, s := range scored {
		members = append(members, redis.Z{
			Score:  s.Assessment.Probability,
			Member: strconv.FormatInt(s.Customer.ID, 10),
		})
	}
	return members
}

func rankedFromZ(entries []redis.Z) []RankedCustomer {
	out := make([]RankedCustomer, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, RankedCustomer{CustomerID: id, Probability: z.Score})
	}
	return out
}

func summarize(result monitor.PassResult) PassSummary {
	tiers := make(map[string]int, len(risk.Tiers))
	for _, tier := range risk.Tiers {
		tiers[string(tier)] = result.Tiers[tier]
	}
	return PassSummary{
		PassID:    result.PassID,
		At:        result.At,
		Total:     result.Total,
		Predicted: result.Predicted,
		Tiers:     tiers,
	}
}
