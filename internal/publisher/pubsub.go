package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// PubSubConfig identifies the topic that receives run events.
type PubSubConfig struct {
	ProjectID string
	Topic     string
}

// PubSubProvider publishes events to a Google Cloud Pub/Sub topic.
type PubSubProvider struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubProvider connects to Pub/Sub and verifies the topic exists.
func NewPubSubProvider(ctx context.Context, cfg PubSubConfig) (*PubSubProvider, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("publisher.project_id is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("publisher.topic is required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check topic %s: %w", cfg.Topic, err)
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("topic %s does not exist", cfg.Topic)
	}
	return &PubSubProvider{client: client, topic: topic}, nil
}

// Publish marshals the payload to JSON and publishes it to the topic.
func (p *PubSubProvider) Publish(ctx context.Context, payload any) (string, error) {
	if p.topic == nil {
		return "", fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close stops the topic's publish goroutines and closes the client.
func (p *PubSubProvider) Close() error {
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
