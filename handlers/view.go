package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"
	"masterboxer.com/posts-admin/queries"
	"masterboxer.com/posts-admin/remote"
)

// Segment is a piece of text and whether it matched the search.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text around every case-insensitive literal occurrence of
// query. An empty query yields the whole text as one segment.
func Highlight(text string, query string) []Segment {
	if text == "" {
		return []Segment{}
	}
	if query == "" {
		return []Segment{{Text: text}}
	}

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	segments := []Segment{}
	last := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the fixed message of a remote failure, or with
// fallback for anything else.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var failure *remote.RemoteFailure
	switch {
	case errors.Is(err, queries.ErrInvalidInput):
		http.Error(w, "Invalid input", http.StatusBadRequest)
	case errors.As(err, &failure) && failure.StatusCode == http.StatusNotFound:
		http.Error(w, failure.Message, http.StatusNotFound)
	case errors.As(err, &failure):
		log.Printf("[Console] %s: %v", failure.Op, failure.Err)
		http.Error(w, failure.Message, http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Request canceled", http.StatusServiceUnavailable)
	default:
		log.Printf("[Console] %s: %v", fallback, err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
