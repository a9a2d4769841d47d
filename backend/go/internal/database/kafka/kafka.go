package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"OnboardingBuddy/backend/go/internal/config"

	"github.com/segmentio/kafka-go"
)

// Client holds the writer for the activity topic and an admin connection.
type Client struct {
	Writer *kafka.Writer
	Conn   *kafka.Conn
	Config *config.KafkaConfig
}

var (
	client  *Client
	once    sync.Once
	initErr error
)

// GetClient connects to the first broker, creates the configured topic when
// missing and returns the process-wide client.
func GetClient(cfg *config.KafkaConfig) (*Client, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = errors.New("kafka brokers are not configured")
			return
		}
		if cfg.Topic == "" {
			initErr = errors.New("kafka topic is not configured")
			return
		}

		conn, err := kafka.DialContext(context.Background(), "tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("dial kafka: %w", err)
			return
		}
		if err := ensureTopic(conn, cfg.Topic); err != nil {
			conn.Close()
			initErr = err
			return
		}

		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
			RequiredAcks: kafka.RequireOne,
			// Delivery happens in the background; failures reach Completion.
			Async:        true,
			WriteTimeout: 2 * time.Second,
			MaxAttempts:  3,
		}
		client = &Client{Writer: writer, Conn: conn, Config: cfg}
	})
	return client, initErr
}

func ensureTopic(conn *kafka.Conn, topic string) error {
	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read kafka partitions: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == topic {
			return nil
		}
	}
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("create kafka topic '%s': %w", topic, err)
	}
	return nil
}

// Close closes the writer and the admin connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HealthCheck asks the cluster for its controller.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return errors.New("kafka client is not initialised")
	}
	if dl, ok := ctx.Deadline(); ok {
		c.Conn.SetDeadline(dl)
		defer c.Conn.SetDeadline(time.Time{})
	}
	if _, err := c.Conn.Controller(); err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}
	return nil
}
