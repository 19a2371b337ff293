package users

import (
	"context"
)

// Service handles account lookups exposed over HTTP.
type Service struct {
	repo Directory
}

// NewService builds Service instance.
func NewService(repo Directory) *Service {
	return &Service{repo: repo}
}

// Subscribers returns the newsletter export.
func (s *Service) Subscribers(ctx context.Context) ([]Profile, error) {
	list, err := s.repo.ListSubscribed(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, len(list))
	for i, u := range list {
		profiles[i] = ProfileOf(u)
	}
	return profiles, nil
}
