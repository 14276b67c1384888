// internal/store/universities.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// UniversityStore reads requirement documents from the catalog index.
type UniversityStore struct {
	client *elasticsearch.Client
	index  string
}

func NewUniversityStore(client *elasticsearch.Client, index string) *UniversityStore {
	return &UniversityStore{client: client, index: index}
}

type getResponse struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

type mgetResponse struct {
	Docs []getResponse `json:"docs"`
}

// GetRequirements returns one requirement model or UNIVERSITY_NOT_FOUND.
func (s *UniversityStore) GetRequirements(ctx context.Context, universityID string) (*models.RequirementModel, error) {
	res, err := s.client.Get(s.index, universityID, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, searchError("university_get", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewUniversityNotFoundError(universityID)
	}
	if res.IsError() {
		return nil, searchError("university_get", fmt.Errorf("status %s", res.Status()))
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, searchError("university_get", fmt.Errorf("decode: %w", err))
	}
	if !doc.Found {
		return nil, errors.NewUniversityNotFoundError(universityID)
	}
	return sourceOf(doc)
}

// GetRequirementsBatch fetches several models in one round trip, in input
// order. Any missing id fails the batch with UNIVERSITY_NOT_FOUND.
func (s *UniversityStore) GetRequirementsBatch(ctx context.Context, universityIDs []string) ([]*models.RequirementModel, error) {
	if len(universityIDs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]interface{}{"ids": universityIDs})
	if err != nil {
		return nil, searchError("university_mget", err)
	}

	res, err := s.client.Mget(bytes.NewReader(body),
		s.client.Mget.WithIndex(s.index),
		s.client.Mget.WithContext(ctx),
	)
	if err != nil {
		return nil, searchError("university_mget", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, searchError("university_mget", fmt.Errorf("status %s", res.Status()))
	}

	var out mgetResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, searchError("university_mget", fmt.Errorf("decode: %w", err))
	}

	byID := make(map[string]*models.RequirementModel, len(out.Docs))
	for _, doc := range out.Docs {
		if !doc.Found {
			continue
		}
		req, err := sourceOf(doc)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = req
	}

	result := make([]*models.RequirementModel, 0, len(universityIDs))
	for _, id := range universityIDs {
		req, ok := byID[id]
		if !ok {
			return nil, errors.NewUniversityNotFoundError(id)
		}
		result = append(result, req)
	}
	return result, nil
}

// sourceOf decodes a catalog document. A document that cannot be decoded
// will not decode on retry either, so it is reported as INVALID_INPUT.
func sourceOf(doc getResponse) (*models.RequirementModel, error) {
	var req models.RequirementModel
	if err := json.Unmarshal(doc.Source, &req); err != nil {
		return nil, malformedError("university", doc.ID, err)
	}
	if req.UniversityID == "" {
		req.UniversityID = doc.ID
	}
	return &req, nil
}
