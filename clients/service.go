package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/healthsys/go-health-admin/api"
	"github.com/healthsys/go-health-admin/cache"
)

// Service exposes the client-records resource. Reads go through the cache
// store; mutations invalidate the tags they affect.
type Service struct {
	api   *api.Client
	cache *cache.Store
	log   zerolog.Logger
}

// NewService creates a client-records service
func NewService(apiClient *api.Client, cacheStore *cache.Store, log zerolog.Logger) (*Service, error) {
	if apiClient == nil {
		return nil, errors.New("[clients.NewService] api client is required")
	}
	if cacheStore == nil {
		return nil, errors.New("[clients.NewService] cache store is required")
	}
	return &Service{
		api:   apiClient,
		cache: cacheStore,
		log:   log,
	}, nil
}

// List returns all registered clients. The result is filed under the list tag
// plus one tag per returned client, so a single-record mutation also marks the
// list stale.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	return cache.Query(ctx, s.cache, "/clients/", func(ctx context.Context) ([]Client, []cache.Tag, error) {
		var result []Client
		if err := s.api.Get(ctx, "/clients/", &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.List] get")
		}
		tags := make([]cache.Tag, 0, len(result)+1)
		tags = append(tags, ListTag())
		for _, client := range result {
			tags = append(tags, IDTag(client.ID))
		}
		return result, tags, nil
	})
}

// Get returns a single client by id
func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	path := fmt.Sprintf("/clients/%s/", id)
	return cache.Query(ctx, s.cache, path, func(ctx context.Context) (*Client, []cache.Tag, error) {
		var result Client
		if err := s.api.Get(ctx, path, &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.Get] get")
		}
		return &result, []cache.Tag{IDTag(id)}, nil
	})
}

// Search returns the clients matching query
func (s *Service) Search(ctx context.Context, query string) ([]Client, error) {
	path := "/clients/search/?query=" + url.QueryEscape(query)
	return cache.Query(ctx, s.cache, path, func(ctx context.Context) ([]Client, []cache.Tag, error) {
		var result []Client
		if err := s.api.Get(ctx, path, &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.Search] get")
		}
		return result, []cache.Tag{SearchTag()}, nil
	})
}

// Create registers a new client and invalidates the client list
func (s *Service) Create(ctx context.Context, form FormData) (*Client, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var created Client
	if err := s.api.Post(ctx, "/clients/", form, &created); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] post")
	}

	s.cache.Invalidate(ListTag())
	s.log.Info().Str("client_id", created.ID).Msg("client registered")
	return &created, nil
}

// Update applies a partial update to a client and invalidates that client's
// tag. The list entry carries per-client tags, so it goes stale too.
func (s *Service) Update(ctx context.Context, id string, update UpdateData) (*Client, error) {
	var updated Client
	if err := s.api.Patch(ctx, fmt.Sprintf("/clients/%s/", id), update, &updated); err != nil {
		return nil, errors.Wrap(err, "[Service.Update] patch")
	}

	s.cache.Invalidate(IDTag(id))
	return &updated, nil
}

// EnrollInProgram enrolls a client into a program. Only the client's own tag
// is invalidated: enrollment changes that client's record, not the identity of
// the client list.
func (s *Service) EnrollInProgram(ctx context.Context, clientID, programID string) error {
	body := map[string]string{"programId": programID}
	if err := s.api.Post(ctx, fmt.Sprintf("/clients/%s/enroll/", clientID), body, nil); err != nil {
		return errors.Wrap(err, "[Service.EnrollInProgram] post")
	}

	s.cache.Invalidate(IDTag(clientID))
	s.log.Info().Str("client_id", clientID).Str("program_id", programID).Msg("client enrolled")
	return nil
}
