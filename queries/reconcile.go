package queries

import (
	"slices"

	"masterboxer.com/posts-admin/models"
)

type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
)

// Reconcile decides what a key holds once a mutation settles. A rolled back
// mutation yields the snapshot untouched. A committed one yields current,
// passed through confirm when the server response has to replace part of
// the optimistic patch.
func Reconcile[T any](snapshot T, current T, outcome Outcome, confirm func(T) T) T {
	if outcome == OutcomeRolledBack {
		return snapshot
	}
	if confirm == nil {
		return current
	}
	return confirm(current)
}

// The helpers below never modify their input. Each returns a new page that
// shares unchanged elements with the old one.

func AppendComment(page *models.CommentsPage, comment models.Comment) *models.CommentsPage {
	if page == nil {
		return &models.CommentsPage{
			Comments: []models.Comment{comment},
			Total:    1,
		}
	}
	next := *page
	next.Comments = append(slices.Clip(page.Comments), comment)
	next.Total = page.Total + 1
	return &next
}

// ConfirmComment swaps the temporary comment tempID for the server's copy.
func ConfirmComment(page *models.CommentsPage, tempID int, confirmed models.Comment) *models.CommentsPage {
	if page == nil {
		return AppendComment(nil, confirmed)
	}
	return mapComments(page, tempID, func(models.Comment) models.Comment {
		return confirmed
	})
}

func ReplaceCommentBody(page *models.CommentsPage, id int, body string) *models.CommentsPage {
	return mapComments(page, id, func(c models.Comment) models.Comment {
		c.Body = body
		return c
	})
}

func SetCommentLikes(page *models.CommentsPage, id int, likes int) *models.CommentsPage {
	return mapComments(page, id, func(c models.Comment) models.Comment {
		c.Likes = likes
		return c
	})
}

// MergeComment lays the server's copy of a comment over the cached one.
// The server may answer without the author; the cached author stays then.
func MergeComment(page *models.CommentsPage, server models.Comment) *models.CommentsPage {
	return mapComments(page, server.ID, func(c models.Comment) models.Comment {
		merged := server
		if merged.User.ID == 0 {
			merged.User = c.User
		}
		if merged.PostID == 0 {
			merged.PostID = c.PostID
		}
		return merged
	})
}

func RemoveComment(page *models.CommentsPage, id int) *models.CommentsPage {
	if page == nil {
		return nil
	}
	i := slices.IndexFunc(page.Comments, func(c models.Comment) bool {
		return c.ID == id
	})
	if i < 0 {
		return page
	}
	next := *page
	next.Comments = slices.Delete(slices.Clone(page.Comments), i, i+1)
	next.Total = max(page.Total-1, 0)
	return &next
}

func mapComments(page *models.CommentsPage, id int, fn func(models.Comment) models.Comment) *models.CommentsPage {
	if page == nil {
		return nil
	}
	i := slices.IndexFunc(page.Comments, func(c models.Comment) bool {
		return c.ID == id
	})
	if i < 0 {
		return page
	}
	next := *page
	next.Comments = slices.Clone(page.Comments)
	next.Comments[i] = fn(page.Comments[i])
	return &next
}

func PrependPost(page *models.PostsPage, post models.Post) *models.PostsPage {
	if page == nil {
		return nil
	}
	next := *page
	next.Posts = append([]models.Post{post}, page.Posts...)
	next.Total = page.Total + 1
	return &next
}

// MergePost overlays the non-zero fields of update on the cached post with
// the same id.
func MergePost(page *models.PostsPage, update models.Post) *models.PostsPage {
	if page == nil {
		return nil
	}
	i := slices.IndexFunc(page.Posts, func(p models.Post) bool {
		return p.ID == update.ID
	})
	if i < 0 {
		return page
	}
	next := *page
	next.Posts = slices.Clone(page.Posts)
	next.Posts[i] = mergePost(page.Posts[i], update)
	return &next
}

func RemovePost(page *models.PostsPage, id int) *models.PostsPage {
	if page == nil {
		return nil
	}
	i := slices.IndexFunc(page.Posts, func(p models.Post) bool {
		return p.ID == id
	})
	if i < 0 {
		return page
	}
	next := *page
	next.Posts = slices.Delete(slices.Clone(page.Posts), i, i+1)
	next.Total = max(page.Total-1, 0)
	return &next
}

func mergePost(current models.Post, update models.Post) models.Post {
	merged := current
	if update.Title != "" {
		merged.Title = update.Title
	}
	if update.Body != "" {
		merged.Body = update.Body
	}
	if update.UserID != 0 {
		merged.UserID = update.UserID
	}
	if update.Tags != nil {
		merged.Tags = update.Tags
	}
	if update.Reactions != (models.Reactions{}) {
		merged.Reactions = update.Reactions
	}
	if update.Views != 0 {
		merged.Views = update.Views
	}
	return merged
}
