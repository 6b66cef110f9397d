package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mailworks/mailadmin/internal/models"
)

// EmailIndexer is the port the email service indexes and searches through.
type EmailIndexer interface {
	Index(ctx context.Context, rec *models.EmailRecord) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.EmailRecord, error)
}

type ESIndex struct {
	Client    *elasticsearch.Client
	IndexName string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.Status())
	}
	return client, nil
}

func (e *ESIndex) Index(ctx context.Context, rec *models.EmailRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	res, err := e.Client.Index(
		e.IndexName,
		bytes.NewReader(body),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(strconv.FormatUint(uint64(rec.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index email %d: %w", rec.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index email %d: %s", rec.ID, res.Status())
	}
	return nil
}

func (e *ESIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.EmailRecord, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"subject^2", "body", "fromAddress", "toAddresses"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.IndexName),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search emails: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search emails: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.EmailRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	recs := make([]models.EmailRecord, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		recs[i] = hit.Source
	}
	return r.Hits.Total.Value, recs, nil
}
