// Package tasks enqueues summary-worker invocations on a Cloud Tasks queue.
package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Enqueuer hands a payload to the async worker. The webhook listener depends
// on this interface so tests can count enqueues without a live queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte) (string, error)
}

// Config locates the queue and the worker endpoint.
type Config struct {
	ProjectID string
	Location  string
	Queue     string
	// WorkerURL is the HTTP endpoint tasks are dispatched to
	WorkerURL string
	// ServiceAccountEmail, when set, attaches an OIDC token so the worker
	// can require authenticated invocations
	ServiceAccountEmail string
	// DispatchDeadline bounds a single worker attempt. Zero keeps the
	// queue's default. Generation can run for minutes, so deployments set
	// this well above the worker's own request timeout.
	DispatchDeadline time.Duration
}

// QueuePath returns the fully qualified Cloud Tasks queue name.
func (c Config) QueuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.ProjectID, c.Location, c.Queue)
}

// Client enqueues HTTP tasks on a Cloud Tasks queue.
type Client struct {
	client *cloudtasks.Client
	config Config
}

// NewClient connects to Cloud Tasks using ambient credentials.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	c, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}
	return &Client{client: c, config: config}, nil
}

// Enqueue creates a task that POSTs the payload to the worker and returns
// the queue-assigned task name.
func (c *Client) Enqueue(ctx context.Context, payload []byte) (string, error) {
	httpReq := &taskspb.HttpRequest{
		HttpMethod: taskspb.HttpMethod_POST,
		Url:        c.config.WorkerURL,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       payload,
	}
	if c.config.ServiceAccountEmail != "" {
		httpReq.AuthorizationHeader = &taskspb.HttpRequest_OidcToken{
			OidcToken: &taskspb.OidcToken{ServiceAccountEmail: c.config.ServiceAccountEmail},
		}
	}

	task := &taskspb.Task{
		MessageType: &taskspb.Task_HttpRequest{HttpRequest: httpReq},
	}
	if c.config.DispatchDeadline > 0 {
		task.DispatchDeadline = durationpb.New(c.config.DispatchDeadline)
	}

	created, err := c.client.CreateTask(ctx, &taskspb.CreateTaskRequest{
		Parent: c.config.QueuePath(),
		Task:   task,
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	log.Printf("[tasks] enqueued %s", created.GetName())
	return created.GetName(), nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
