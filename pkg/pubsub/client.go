package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

const (
	kindTopic        = "topics"
	kindSubscription = "subscriptions"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps a Pub/Sub v2 client together with the resources its
// process depends on. Ping fails when any of them is missing.
type Client struct {
	client    *pubsub.Client
	projectID string
	topics    []string
	subs      []string
}

// Option narrows what a Client verifies at startup and on Ping.
type Option func(*Client)

// RequireSubscriptions makes the named subscriptions part of the health check.
func RequireSubscriptions(names ...string) Option {
	return func(c *Client) { c.subs = appendNames(c.subs, names) }
}

// RequireTopics makes the named topics part of the health check.
func RequireTopics(names ...string) Option {
	return func(c *Client) { c.topics = appendNames(c.topics, names) }
}

func appendNames(dst, names []string) []string {
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			dst = append(dst, trimmed)
		}
	}
	return dst
}

// NewClient dials Pub/Sub and checks every required resource exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	var dial []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		dial = append(dial, option.WithCredentialsJSON([]byte(creds)))
	} else if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		dial = append(dial, option.WithCredentialsFile(path))
	}

	psClient, err := pubsub.NewClient(ctx, projectID, dial...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, projectID: projectID}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topics":        c.topics,
			"subscriptions": c.subs,
		}), "pubsub client initialized")
	}
	return c, nil
}

// Ping checks that every required topic and subscription still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	for _, name := range c.topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: c.resourceName(kindTopic, name),
		})
		if err := describe("topic", name, err); err != nil {
			return err
		}
	}
	for _, name := range c.subs {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
			Subscription: c.resourceName(kindSubscription, name),
		})
		if err := describe("subscription", name, err); err != nil {
			return err
		}
	}
	return nil
}

func describe(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// Subscription returns a receive handle for a subscription ID or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindSubscription, name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

// Publisher returns a publish handle for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindTopic, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// Publishers returns one publisher per topic, keyed by the name given.
func (c *Client) Publishers(topics []string) (map[string]*pubsub.Publisher, error) {
	out := make(map[string]*pubsub.Publisher, len(topics))
	for _, topic := range topics {
		pub := c.Publisher(topic)
		if pub == nil {
			return nil, fmt.Errorf("topic %q not configured", topic)
		}
		out[topic] = pub
	}
	return out, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceName expands an ID to projects/<project>/<kind>/<id>. Names that
// are already fully qualified pass through.
func (c *Client) resourceName(kind, name string) string {
	if c == nil {
		return ""
	}
	id := strings.TrimSpace(name)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "projects/") && strings.Contains(id, "/"+kind+"/") {
		return id
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + "/" + kind + "/" + id
}
