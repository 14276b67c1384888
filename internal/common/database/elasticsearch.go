// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"

	"pathfinder-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// UniversityMapping is the index mapping for requirement documents. Names and
// locations stay searchable; requirement details are stored as-is.
const UniversityMapping = `{
  "mappings": {
    "properties": {
      "id":                   {"type": "keyword"},
      "name":                 {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "country":              {"type": "keyword"},
      "city":                 {"type": "keyword"},
      "campusType":           {"type": "keyword"},
      "majorsOffered":        {"type": "text"},
      "minGPA":               {"type": "float"},
      "tuition":              {"properties": {"min": {"type": "float"}, "max": {"type": "float"}, "currency": {"type": "keyword"}}},
      "testScoreThresholds":  {"type": "object", "enabled": false},
      "requiredDocuments":    {"type": "keyword"},
      "applicationDeadlines": {"properties": {"term": {"type": "keyword"}, "year": {"type": "integer"}, "deadlineDate": {"type": "date"}}},
      "timelineTemplate":     {"type": "object", "enabled": false}
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}
	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with the given mapping if it does not exist.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
