package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	amqp "github.com/rabbitmq/amqp091-go"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewMessageEnvelope(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	msg, err := newMessage("quiz.attempt.completed", map[string]any{"attemptId": "a1", "score": 20}, now)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected message properties: %+v", msg)
	}
	if msg.Headers["event_type"] != "quiz.attempt.completed" {
		t.Fatalf("missing event_type header: %v", msg.Headers)
	}

	var env struct {
		Type       string         `json:"type"`
		Payload    map[string]any `json:"payload"`
		OccurredAt time.Time      `json:"occurredAt"`
	}
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if env.Type != "quiz.attempt.completed" || env.Payload["attemptId"] != "a1" || !env.OccurredAt.Equal(now) {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestNewMessageRejectsUnencodablePayload(t *testing.T) {
	if _, err := newMessage("x", make(chan int), time.Now()); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestPublisherReopensClosedChannel(t *testing.T) {
	ctx := context.Background()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start rabbitmq: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("5672/tcp"))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())

	publisher, err := NewPublisher(url, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer publisher.Close()

	deliveries := consume(t, url)

	if err := publisher.Publish(ctx, "quiz.attempt.started", map[string]any{"attemptId": "a1"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	expectDelivery(t, deliveries, "quiz.attempt.started")

	publisher.mu.Lock()
	broken := publisher.channel
	publisher.mu.Unlock()
	if err := broken.Close(); err != nil {
		t.Fatalf("close channel: %v", err)
	}

	if err := publisher.Publish(ctx, "quiz.attempt.completed", map[string]any{"attemptId": "a1"}); err != nil {
		t.Fatalf("publish after channel loss: %v", err)
	}
	expectDelivery(t, deliveries, "quiz.attempt.completed")
}

func consume(t *testing.T, url string) <-chan amqp.Delivery {
	t.Helper()
	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatalf("dial consumer: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("consumer channel: %v", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("declare queue: %v", err)
	}
	if err := ch.QueueBind(q.Name, "quiz.#", DefaultExchange, false, nil); err != nil {
		t.Fatalf("bind queue: %v", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return deliveries
}

func expectDelivery(t *testing.T, deliveries <-chan amqp.Delivery, eventType string) {
	t.Helper()
	select {
	case d := <-deliveries:
		if d.RoutingKey != eventType {
			t.Fatalf("expected %s, got %s", eventType, d.RoutingKey)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no delivery for %s", eventType)
	}
}
