package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"masterboxer.com/posts-admin/queries"
	"masterboxer.com/posts-admin/remote"
)

func TestHighlightIsCaseInsensitive(t *testing.T) {
	segments := Highlight("His mother had always taught HIM", "him")

	assert.Equal(t, []Segment{
		{Text: "His mother had always taught "},
		{Text: "HIM", Match: true},
	}, segments)
}

func TestHighlightTreatsQueryLiterally(t *testing.T) {
	segments := Highlight("a+b and a+b", "a+b")

	assert.Equal(t, 3, len(segments))
	assert.Equal(t, Segment{Text: "a+b", Match: true}, segments[0])
	assert.Equal(t, Segment{Text: " and "}, segments[1])
	assert.Equal(t, Segment{Text: "a+b", Match: true}, segments[2])
}

func TestHighlightEmptyQuery(t *testing.T) {
	assert.Equal(t, []Segment{{Text: "title"}}, Highlight("title", ""))
	assert.Equal(t, 0, len(Highlight("", "x")))
}

func TestWriteErrorStatus(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	_, remoteNotFound := remote.NewClient(notFound.URL).FetchUser(context.Background(), 9)

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("%w: bad", queries.ErrInvalidInput), http.StatusBadRequest, "Invalid input"},
		{remoteNotFound, http.StatusNotFound, "failed to fetch user"},
		{errors.New("boom"), http.StatusInternalServerError, "Failed to load"},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		writeError(w, c.err, "Failed to load")
		assert.Equal(t, c.status, w.Code)
		assert.Equal(t, c.body, strings.TrimSpace(w.Body.String()))
	}
}
