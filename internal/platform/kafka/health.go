package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// HealthChecker checks broker connectivity with a metadata request.
type HealthChecker struct {
	admin *kadm.Client
}

// NewHealthChecker wraps an existing client; it does not own it.
func NewHealthChecker(client *kgo.Client) *HealthChecker {
	return &HealthChecker{admin: kadm.NewClient(client)}
}

// Check returns nil if the cluster answered with at least one broker.
func (h *HealthChecker) Check(ctx context.Context) error {
	brokers, err := h.admin.ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("kafka metadata request failed: %w", err)
	}
	if len(brokers) == 0 {
		return errors.New("no kafka brokers reachable")
	}
	return nil
}

// Name returns the check name for health reporting.
func (h *HealthChecker) Name() string {
	return "kafka"
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := kadm.NewClient(client).CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// SplitBrokers parses a comma-separated broker list.
func SplitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
