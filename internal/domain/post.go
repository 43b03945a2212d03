package domain

// Post statuses used by the posts screen filter.
const (
	PostDraft     = "draft"
	PostPublished = "published"
)

// Post is a news item shown on the public site.
type Post struct {
	ID        ID        `json:"id,omitempty" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content,omitempty"`
	Author    string    `json:"author,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	Status    string    `json:"status,omitempty"`
}

// Key returns the post identifier.
func (p Post) Key() ID { return p.ID }
