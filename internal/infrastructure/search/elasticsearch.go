// Package search mirrors published posts into Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

// PostsMapping is the index mapping used by EnsureIndex.
const PostsMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "title":      {"type": "text"},
      "body":       {"type": "text"},
      "author":     {"type": "keyword"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

type PostIndex struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
}

func NewPostIndex(es *elasticsearch.Client, index string) *PostIndex {
	return &PostIndex{ES: es, Index: index, Timeout: 3 * time.Second}
}

func (x *PostIndex) EnsureIndex(ctx context.Context) error {
	return helpers.EnsureIndex(ctx, x.ES, x.Index, PostsMapping)
}

func (x *PostIndex) IndexPost(ctx context.Context, p *entity.Post) error {
	doc := map[string]any{
		"id":         p.ID,
		"title":      p.Title,
		"body":       p.Body,
		"author":     p.AuthorID,
		"created_at": p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := esapi.IndexRequest{Index: x.Index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index post %s: %s", p.ID, res.Status())
	}
	return nil
}

// RemovePost deletes the document. A missing document is not an error.
func (x *PostIndex) RemovePost(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: x.Index, DocumentID: id}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove post %s: %s", id, res.Status())
	}
	return nil
}
