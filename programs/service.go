package programs

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/healthsys/go-health-admin/api"
	"github.com/healthsys/go-health-admin/cache"
	"github.com/healthsys/go-health-admin/clients"
)

// Service exposes the health-programs resource. Reads go through the cache
// store; mutations invalidate the tags they affect.
type Service struct {
	api   *api.Client
	cache *cache.Store
	log   zerolog.Logger
}

// NewService creates a programs service
func NewService(apiClient *api.Client, cacheStore *cache.Store, log zerolog.Logger) (*Service, error) {
	if apiClient == nil {
		return nil, errors.New("[programs.NewService] api client is required")
	}
	if cacheStore == nil {
		return nil, errors.New("[programs.NewService] cache store is required")
	}
	return &Service{
		api:   apiClient,
		cache: cacheStore,
		log:   log,
	}, nil
}

// List returns all programs, filed under the list tag plus one tag per program
func (s *Service) List(ctx context.Context) ([]Program, error) {
	return cache.Query(ctx, s.cache, "/programs/", func(ctx context.Context) ([]Program, []cache.Tag, error) {
		var result []Program
		if err := s.api.Get(ctx, "/programs/", &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.List] get")
		}
		tags := make([]cache.Tag, 0, len(result)+1)
		tags = append(tags, ListTag())
		for _, program := range result {
			tags = append(tags, IDTag(program.ID))
		}
		return result, tags, nil
	})
}

// Get returns a single program by id
func (s *Service) Get(ctx context.Context, id string) (*Program, error) {
	path := fmt.Sprintf("/programs/%s/", id)
	return cache.Query(ctx, s.cache, path, func(ctx context.Context) (*Program, []cache.Tag, error) {
		var result Program
		if err := s.api.Get(ctx, path, &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.Get] get")
		}
		return &result, []cache.Tag{IDTag(id)}, nil
	})
}

// Clients returns the clients enrolled in a program. The result carries the
// program's tag plus one tag per enrolled client.
func (s *Service) Clients(ctx context.Context, programID string) ([]clients.Client, error) {
	path := fmt.Sprintf("/programs/%s/clients/", programID)
	return cache.Query(ctx, s.cache, path, func(ctx context.Context) ([]clients.Client, []cache.Tag, error) {
		var result []clients.Client
		if err := s.api.Get(ctx, path, &result); err != nil {
			return nil, nil, errors.Wrap(err, "[Service.Clients] get")
		}
		tags := make([]cache.Tag, 0, len(result)+1)
		tags = append(tags, IDTag(programID))
		for _, client := range result {
			tags = append(tags, clients.IDTag(client.ID))
		}
		return result, tags, nil
	})
}

// Create adds a new program and invalidates the program list
func (s *Service) Create(ctx context.Context, form FormData) (*Program, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var created Program
	if err := s.api.Post(ctx, "/programs/", form, &created); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] post")
	}

	s.cache.Invalidate(ListTag())
	s.log.Info().Str("program_id", created.ID).Msg("program created")
	return &created, nil
}

// Update applies a partial update to a program and invalidates its tag
func (s *Service) Update(ctx context.Context, id string, update UpdateData) (*Program, error) {
	var updated Program
	if err := s.api.Patch(ctx, fmt.Sprintf("/programs/%s/", id), update, &updated); err != nil {
		return nil, errors.Wrap(err, "[Service.Update] patch")
	}

	s.cache.Invalidate(IDTag(id))
	return &updated, nil
}

// Delete removes a program and invalidates the program list
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/programs/%s/", id), nil); err != nil {
		return errors.Wrap(err, "[Service.Delete] delete")
	}

	s.cache.Invalidate(ListTag())
	s.log.Info().Str("program_id", id).Msg("program deleted")
	return nil
}
