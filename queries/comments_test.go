package queries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"masterboxer.com/posts-admin/models"
)

func cachedComments(t *testing.T, c *Client, postID int) *models.CommentsPage {
	t.Helper()
	value, ok := c.Store().Get(models.CommentsByPostKey(postID))
	if !ok {
		return nil
	}
	return value.(*models.CommentsPage)
}

func TestCommentsByPostIsCached(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)

	first, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)
	second, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.callCount("comments/7"))
}

func TestCommentsByPostZeroIsDisabled(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	_, err := c.Comments.ByPost(context.Background(), 0)

	assert.Equal(t, ErrQueryDisabled, err)
	assert.Equal(t, 0, len(api.calls))
}

func TestLikeIsOptimisticAndRevertsOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	likesDuringCall := -1
	api.beforeWrite = func() {
		likesDuringCall = cachedComments(t, c, 7).Comments[0].Likes
	}
	api.writeErr = errServer

	_, err = c.Comments.Like(context.Background(), LikeComment{ID: 1, PostID: 7, CurrentLikes: 0})

	assert.Equal(t, true, errors.Is(err, errServer))
	assert.Equal(t, 1, likesDuringCall)
	assert.Equal(t, 0, cachedComments(t, c, 7).Comments[0].Likes)
}

func TestLikeUsesDispatchTimeCount(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	// both likes were dispatched while the table showed 3
	for i := 0; i < 2; i++ {
		comment, err := c.Comments.Like(context.Background(), LikeComment{ID: 2, PostID: 7, CurrentLikes: 3})
		assert.Equal(t, nil, err)
		assert.Equal(t, 4, comment.Likes)
	}

	assert.Equal(t, 2, api.callCount("like 2=4"))
	assert.Equal(t, 0, api.callCount("like 2=5"))
	assert.Equal(t, 4, cachedComments(t, c, 7).Comments[1].Likes)
}

func TestDeleteCommentRestoresFullListOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)
	before := cachedJSON(t, c.Store(), models.CommentsByPostKey(7))

	countDuringCall := -1
	api.beforeWrite = func() {
		page := cachedComments(t, c, 7)
		countDuringCall = len(page.Comments)
		assert.Equal(t, 2, page.Comments[0].ID)
	}
	api.writeErr = errServer

	err = c.Comments.Delete(context.Background(), 1, 7)

	assert.Equal(t, true, errors.Is(err, errServer))
	assert.Equal(t, 1, countDuringCall)
	assert.Equal(t, before, cachedJSON(t, c.Store(), models.CommentsByPostKey(7)))
}

func TestDeleteCommentKeepsPatchOnSuccess(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	err = c.Comments.Delete(context.Background(), 1, 7)

	assert.Equal(t, nil, err)
	page := cachedComments(t, c, 7)
	assert.Equal(t, 1, len(page.Comments))
	assert.Equal(t, 1, page.Total)
	// the fixture the fake serves is untouched
	assert.Equal(t, 2, len(api.comments[7].Comments))
}

func TestAddCommentReplacesTemporary(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(api, WithClock(func() time.Time { return now }))
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	var pending models.Comment
	api.beforeWrite = func() {
		page := cachedComments(t, c, 7)
		pending = page.Comments[len(page.Comments)-1]
	}

	comment, err := c.Comments.Add(context.Background(), models.NewComment{Body: "new one", PostID: 7, UserID: 5})

	assert.Equal(t, nil, err)
	assert.Equal(t, int(now.UnixMilli()), pending.ID)
	assert.Equal(t, PendingUsername, pending.User.Username)
	assert.Equal(t, PendingFullName, pending.User.FullName)
	assert.Equal(t, "new one", pending.Body)

	page := cachedComments(t, c, 7)
	assert.Equal(t, 3, len(page.Comments))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, *comment, page.Comments[2])
	assert.Equal(t, "emilys", page.Comments[2].User.Username)
}

func TestTemporaryIDsNeverRepeat(t *testing.T) {
	api := newFakeAPI()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(api, WithClock(func() time.Time { return now }))

	first := c.nextTempID()
	second := c.nextTempID()

	assert.Equal(t, first+1, second)
}

func TestAddCommentCreatesListAndRollsBack(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	seen := 0
	api.beforeWrite = func() {
		seen = len(cachedComments(t, c, 9).Comments)
	}
	api.writeErr = errServer

	_, err := c.Comments.Add(context.Background(), models.NewComment{Body: "first!", PostID: 9, UserID: 1})

	assert.Equal(t, true, errors.Is(err, errServer))
	assert.Equal(t, 1, seen)
	_, ok := c.Store().Get(models.CommentsByPostKey(9))
	assert.Equal(t, false, ok)

	api.comments[9] = commentsFixture()
	page, err := c.Comments.ByPost(context.Background(), 9)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(page.Comments))
	assert.Equal(t, 1, api.callCount("comments/9"))
}

func TestAddCommentOnUnloadedListLoadsServerListNext(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)

	comment, err := c.Comments.Add(context.Background(), models.NewComment{Body: "first!", PostID: 7, UserID: 1})
	assert.Equal(t, nil, err)
	page := cachedComments(t, c, 7)
	assert.Equal(t, 1, len(page.Comments))
	assert.Equal(t, *comment, page.Comments[0])
	_, fresh, _ := c.Store().Peek(models.CommentsByPostKey(7))
	assert.Equal(t, false, fresh)

	page, err = c.Comments.ByPost(context.Background(), 7)

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(page.Comments))
	assert.Equal(t, 1, api.callCount("comments/7"))
}

// holdFirstLoad keeps the first comments read of post 7 open until the
// returned release is called.
func holdFirstLoad(t *testing.T, api *fakeAPI, c *Client) (release func(), done <-chan error) {
	t.Helper()
	var once sync.Once
	started := make(chan struct{})
	hold := make(chan struct{})
	api.beforeRead = func(ctx context.Context) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-hold
		}
	}

	result := make(chan error, 1)
	go func() {
		page, err := c.Comments.ByPost(context.Background(), 7)
		if err == nil && len(page.Comments) != 2 {
			err = fmt.Errorf("got %d comments", len(page.Comments))
		}
		result <- err
	}()
	<-started
	return func() { close(hold) }, result
}

func TestWritesDuringFirstLoadLeaveTheReadAlone(t *testing.T) {
	writes := map[string]func(c *Client) error{
		"like": func(c *Client) error {
			_, err := c.Comments.Like(context.Background(), LikeComment{ID: 1, PostID: 7, CurrentLikes: 0})
			return err
		},
		"delete": func(c *Client) error {
			return c.Comments.Delete(context.Background(), 1, 7)
		},
		"update": func(c *Client) error {
			_, err := c.Comments.Update(context.Background(), UpdateComment{ID: 1, PostID: 7, Body: "edited"})
			return err
		},
	}
	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI()
			api.comments[7] = commentsFixture()
			c := newTestClient(api)
			release, done := holdFirstLoad(t, api, c)

			assert.Equal(t, nil, write(c))
			release()

			assert.Equal(t, nil, <-done)
			assert.Equal(t, 1, api.callCount("comments/7"))
			assert.Equal(t, 2, len(cachedComments(t, c, 7).Comments))
		})
	}
}

func TestFailedAddDuringFirstLoadReadsAgain(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	release, done := holdFirstLoad(t, api, c)

	api.writeErr = errServer
	_, err := c.Comments.Add(context.Background(), models.NewComment{Body: "first!", PostID: 7, UserID: 1})
	assert.Equal(t, true, errors.Is(err, errServer))
	release()

	assert.Equal(t, nil, <-done)
	assert.Equal(t, 2, api.callCount("comments/7"))
	assert.Equal(t, 2, len(cachedComments(t, c, 7).Comments))
}

func TestUpdateCommentKeepsCachedAuthor(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	_, err = c.Comments.Update(context.Background(), UpdateComment{ID: 1, PostID: 7, Body: "edited"})

	assert.Equal(t, nil, err)
	updated := cachedComments(t, c, 7).Comments[0]
	assert.Equal(t, "edited", updated.Body)
	assert.Equal(t, "emilys", updated.User.Username)
	assert.Equal(t, 7, updated.PostID)
}

func TestUpdateCommentRollsBack(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	c := newTestClient(api)
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)
	before := cachedJSON(t, c.Store(), models.CommentsByPostKey(7))

	bodyDuringCall := ""
	api.beforeWrite = func() {
		bodyDuringCall = cachedComments(t, c, 7).Comments[0].Body
	}
	api.writeErr = errServer

	_, err = c.Comments.Update(context.Background(), UpdateComment{ID: 1, PostID: 7, Body: "edited"})

	assert.Equal(t, true, errors.Is(err, errServer))
	assert.Equal(t, "edited", bodyDuringCall)
	assert.Equal(t, before, cachedJSON(t, c.Store(), models.CommentsByPostKey(7)))
}

func TestCommentMutationsRejectBadInput(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	_, err := c.Comments.Add(context.Background(), models.NewComment{Body: "  ", PostID: 7})
	assert.Equal(t, true, errors.Is(err, ErrInvalidInput))
	_, err = c.Comments.Like(context.Background(), LikeComment{ID: 1})
	assert.Equal(t, true, errors.Is(err, ErrInvalidInput))
	err = c.Comments.Delete(context.Background(), 0, 7)
	assert.Equal(t, true, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, 0, len(api.calls))
}

func TestObserversSeeEveryOutcome(t *testing.T) {
	api := newFakeAPI()
	api.comments[7] = commentsFixture()
	var events []MutationEvent
	c := newTestClient(api, WithObserver(ObserverFunc(func(event MutationEvent) {
		events = append(events, event)
	})))
	_, err := c.Comments.ByPost(context.Background(), 7)
	assert.Equal(t, nil, err)

	_, err = c.Comments.Like(context.Background(), LikeComment{ID: 1, PostID: 7})
	assert.Equal(t, nil, err)
	api.writeErr = errServer
	err = c.Comments.Delete(context.Background(), 1, 7)
	assert.NotEqual(t, nil, err)

	assert.Equal(t, 2, len(events))
	assert.Equal(t, KindLikeComment, events[0].Kind)
	assert.Equal(t, OutcomeCommitted, events[0].Outcome)
	assert.Equal(t, "comments/post/7", events[0].Keys[0].String())
	assert.Equal(t, KindDeleteComment, events[1].Kind)
	assert.Equal(t, OutcomeRolledBack, events[1].Outcome)
	assert.Equal(t, errServer, events[1].Err)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}
