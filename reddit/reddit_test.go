package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

const topFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>top scoring links : todayilearned</title>
  <entry>
    <id>t3_abc123</id>
    <title>TIL the Eiffel Tower can be 15 cm taller during summer</title>
    <link href="https://www.reddit.com/r/todayilearned/comments/abc123/til_the_eiffel/"/>
    <updated>2024-06-01T10:00:00+00:00</updated>
    <published>2024-06-01T09:30:00+00:00</published>
  </entry>
  <entry>
    <id>t3_def456</id>
    <title>TIL honey never spoils</title>
    <link href="https://www.reddit.com/r/todayilearned/comments/def456/til_honey/"/>
    <updated>2024-06-01T11:00:00+00:00</updated>
  </entry>
  <entry>
    <id>t3_ghi789</id>
    <title>   </title>
    <link href="https://www.reddit.com/r/todayilearned/comments/ghi789/"/>
  </entry>
</feed>`

func TestFeedSourceFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(topFeed))
	}))
	defer srv.Close()

	src := NewFeedSource(srv.URL, Options{UserAgent: "tilbot-test/1.0"})
	posts, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts; want 2 (blank title skipped)", len(posts))
	}
	if posts[0].ID != "abc123" || posts[1].ID != "def456" {
		t.Fatalf("ids = %q, %q", posts[0].ID, posts[1].ID)
	}
	if posts[0].Title != "TIL the Eiffel Tower can be 15 cm taller during summer" {
		t.Fatalf("title = %q", posts[0].Title)
	}
	want := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	if !posts[0].CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %s; want %s", posts[0].CreatedAt, want)
	}
	if gotUA != "tilbot-test/1.0" {
		t.Fatalf("User-Agent = %q", gotUA)
	}
}

func TestFeedSourceRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(topFeed))
	}))
	defer srv.Close()

	posts, err := NewFeedSource(srv.URL, Options{Limit: 1}).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].ID != "abc123" {
		t.Fatalf("posts = %+v", posts)
	}
}

func TestFeedSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewFeedSource(srv.URL, Options{}).Fetch(context.Background()); err == nil {
		t.Fatalf("Fetch on 429 = nil error")
	}
}

func TestFeedURL(t *testing.T) {
	got := FeedURL(Options{})
	want := "https://www.reddit.com/r/todayilearned/top/.rss?limit=30&t=day"
	if got != want {
		t.Fatalf("FeedURL = %q; want %q", got, want)
	}
}

func TestFromAPI(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	p := &reddit.Post{
		ID:            "abc123",
		Title:         "  TIL something  ",
		Permalink:     "/r/todayilearned/comments/abc123/til_something/",
		Score:         4200,
		SubredditName: "todayilearned",
		Created:       &reddit.Timestamp{Time: created},
	}
	got, ok := fromAPI(p, "todayilearned")
	if !ok {
		t.Fatalf("fromAPI rejected a valid post")
	}
	if got.ID != "abc123" || got.Title != "TIL something" || got.Score != 4200 {
		t.Fatalf("post = %+v", got)
	}
	if got.URL != "https://www.reddit.com/r/todayilearned/comments/abc123/til_something/" {
		t.Fatalf("URL = %q", got.URL)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %s", got.CreatedAt)
	}

	if _, ok := fromAPI(&reddit.Post{ID: "x"}, "todayilearned"); ok {
		t.Fatalf("fromAPI accepted a post without title")
	}
	if _, ok := fromAPI(nil, "todayilearned"); ok {
		t.Fatalf("fromAPI accepted nil")
	}
}

func TestNormalizeID(t *testing.T) {
	cases := map[string]string{"t3_abc123": "abc123", "abc123": "abc123", " t3_x ": "x"}
	for in, want := range cases {
		if got := normalizeID(in); got != want {
			t.Fatalf("normalizeID(%q) = %q; want %q", in, got, want)
		}
	}
}
