package service

import (
	"context"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
)

// PostService is the post administration screen. Unlike books and readers,
// posts are not shared and the screen owns its collection.
type PostService struct {
	posts *collection.Manager[domain.Post]
}

// NewPostService creates a new post service.
func NewPostService(d Deps) *PostService {
	return &PostService{
		posts: collection.New(collection.Config[domain.Post]{
			Screen:   ScreenPosts,
			Remote:   d.Client.Posts(),
			Hub:      d.Hub,
			Logger:   d.Logger,
			Messages: collection.DefaultMessages("post"),
			Filter:   PostFilter,
			Validate: func(p domain.Post) error {
				return d.Validator.Validate(postRules{Title: p.Title, Status: p.Status})
			},
			SearchDelay: d.SearchDelay,
		}),
	}
}

// Manager returns the manager behind the screen.
func (s *PostService) Manager() *collection.Manager[domain.Post] {
	return s.posts
}

// Load fetches every post.
func (s *PostService) Load(ctx context.Context) error {
	return s.posts.Load(ctx)
}

// Visible returns the posts matching the current search and status.
func (s *PostService) Visible() []domain.Post {
	return s.posts.Visible()
}

// Get returns a loaded post.
func (s *PostService) Get(id domain.ID) (domain.Post, error) {
	p, ok := s.posts.Get(id)
	if !ok {
		return domain.Post{}, errors.NotFoundf("post %s not found", id)
	}
	return p, nil
}

// Add creates a post. Posts without a status start as drafts.
func (s *PostService) Add(ctx context.Context, p domain.Post) (domain.Post, error) {
	if p.Status == "" {
		p.Status = domain.PostDraft
	}
	return s.posts.Create(ctx, p)
}

// Update saves changes to a post.
func (s *PostService) Update(ctx context.Context, p domain.Post) (domain.Post, error) {
	return s.posts.Update(ctx, p)
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id domain.ID) error {
	return s.posts.Delete(ctx, id)
}

// Close ends the screen.
func (s *PostService) Close() {
	s.posts.Close()
}
