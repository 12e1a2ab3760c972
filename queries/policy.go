package queries

import (
	"time"

	"masterboxer.com/posts-admin/cache"
)

// Policy holds how long a cached value of each entity kind is trusted, and
// how long the store keeps it around after that.
type Policy struct {
	Posts     time.Duration `yaml:"posts"`
	Comments  time.Duration `yaml:"comments"`
	Users     time.Duration `yaml:"users"`
	Tags      time.Duration `yaml:"tags"`
	Retention time.Duration `yaml:"retention"`
}

func DefaultPolicy() Policy {
	return Policy{
		Posts:     5 * time.Minute,
		Comments:  5 * time.Minute,
		Users:     10 * time.Minute,
		Tags:      30 * time.Minute,
		Retention: cache.DefaultRetention,
	}
}

// WithDefaults fills every unset duration from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	defaults := DefaultPolicy()
	if p.Posts <= 0 {
		p.Posts = defaults.Posts
	}
	if p.Comments <= 0 {
		p.Comments = defaults.Comments
	}
	if p.Users <= 0 {
		p.Users = defaults.Users
	}
	if p.Tags <= 0 {
		p.Tags = defaults.Tags
	}
	if p.Retention <= 0 {
		p.Retention = defaults.Retention
	}
	return p
}
