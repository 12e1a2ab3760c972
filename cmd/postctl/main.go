package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/docopt/docopt-go"

	"masterboxer.com/posts-admin/cache"
	"masterboxer.com/posts-admin/config"
	"masterboxer.com/posts-admin/models"
	"masterboxer.com/posts-admin/queries"
	"masterboxer.com/posts-admin/remote"
)

const PostCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Posts API control.

The default api url is https://dummyjson.com, or API_BASE_URL when set.

Usage:
    postctl posts [--api_url=<api_url>] [--limit=<limit>] [--skip=<skip>]
        [--sort_by=<field>] [--order=<order>] [--search=<query>] [--tag=<tag>]
    postctl search [--api_url=<api_url>] <query>
    postctl tag [--api_url=<api_url>] <tag> [--limit=<limit>] [--skip=<skip>]
    postctl tags [--api_url=<api_url>]
    postctl comments [--api_url=<api_url>] <post_id>
    postctl like-comment [--api_url=<api_url>] <post_id> <comment_id>
        --current_likes=<current_likes>
    postctl user [--api_url=<api_url>] <user_id>

Options:
    -h --help                        Show this screen.
    --version                        Show version.
    --api_url=<api_url>
    --limit=<limit>                  Page size [default: 10].
    --skip=<skip>                    Rows to skip [default: 0].
    --sort_by=<field>                Sort field, e.g. title.
    --order=<order>                  asc or desc.
    --search=<query>                 Search posts instead of listing them.
    --tag=<tag>                      Only posts with this tag.
    --current_likes=<current_likes>  The like count you saw before liking.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], PostCtlVersion)
	if err != nil {
		panic(err)
	}

	client := newClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if posts_, _ := opts.Bool("posts"); posts_ {
		listPosts(ctx, client, opts)
	} else if search_, _ := opts.Bool("search"); search_ {
		searchPosts(ctx, client, opts)
	} else if tag_, _ := opts.Bool("tag"); tag_ {
		postsByTag(ctx, client, opts)
	} else if tags_, _ := opts.Bool("tags"); tags_ {
		listTags(ctx, client)
	} else if comments_, _ := opts.Bool("comments"); comments_ {
		listComments(ctx, client, opts)
	} else if likeComment_, _ := opts.Bool("like-comment"); likeComment_ {
		likeComment(ctx, client, opts)
	} else if user_, _ := opts.Bool("user"); user_ {
		getUser(ctx, client, opts)
	}
}

func newClient(opts docopt.Opts) *queries.Client {
	cfg, err := config.Load(".env")
	if err != nil {
		Err.Fatalf("config: %s", err)
	}
	apiURL := cfg.APIBaseURL
	if apiURL_, err := opts.String("--api_url"); err == nil && apiURL_ != "" {
		apiURL = apiURL_
	}
	store := cache.NewStore(cache.WithRetention(cfg.Policy.Retention))
	return queries.NewClient(remote.NewClient(apiURL), store, queries.WithPolicy(cfg.Policy))
}

func listPosts(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	limit, _ := opts.Int("--limit")
	skip, _ := opts.Int("--skip")
	sortBy, _ := opts.String("--sort_by")
	order, _ := opts.String("--order")
	search, _ := opts.String("--search")
	tag, _ := opts.String("--tag")

	filter := models.ParsePostFilter(nil).
		WithSearch(search).
		WithTag(tag).
		WithLimit(limit).
		WithPage(skip)
	filter.SortBy = sortBy
	if order != "" {
		filter.SortOrder = order
	}

	view, err := client.BrowsePosts(ctx, filter)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(view)
}

func searchPosts(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	query, _ := opts.String("<query>")

	page, err := client.Posts.Search(ctx, query)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(page)
}

func postsByTag(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	tag, _ := opts.String("<tag>")
	limit, _ := opts.Int("--limit")
	skip, _ := opts.Int("--skip")

	page, err := client.Posts.ByTag(ctx, tag, limit, skip)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(page)
}

func listTags(ctx context.Context, client *queries.Client) {
	tags, err := client.Posts.Tags(ctx)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(tags)
}

func listComments(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	postID, _ := opts.Int("<post_id>")

	page, err := client.Comments.ByPost(ctx, postID)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(page)
}

// like a comment, then print the cached list as the console would show it
func likeComment(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	postID, _ := opts.Int("<post_id>")
	commentID, _ := opts.Int("<comment_id>")
	currentLikes, _ := opts.Int("--current_likes")

	if _, err := client.Comments.ByPost(ctx, postID); err != nil {
		Err.Fatalf("%s", err)
	}

	_, err := client.Comments.Like(ctx, queries.LikeComment{
		ID:           commentID,
		PostID:       postID,
		CurrentLikes: currentLikes,
	})
	if err != nil {
		Err.Printf("%s (cache rolled back)", err)
	}

	page, _ := client.Store().Get(models.CommentsByPostKey(postID))
	printJSON(page)
}

func getUser(ctx context.Context, client *queries.Client, opts docopt.Opts) {
	userID, _ := opts.Int("<user_id>")

	user, err := client.Users.Get(ctx, userID)
	if err != nil {
		Err.Fatalf("%s", err)
	}
	printJSON(user)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		Err.Fatalf("%s", err)
	}
	Out.Printf("%s", b)
}
