package websvc_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// fakeBlogs is an in-memory blog backend.
type fakeBlogs struct {
	mu       sync.Mutex
	posts    map[domain.PostID]domain.Post
	nextID   domain.PostID
	pageSize int
	pages    []int
	updates  []domain.PostInput

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func newFakeBlogs(posts ...domain.Post) *fakeBlogs {
	b := &fakeBlogs{posts: make(map[domain.PostID]domain.Post), nextID: 1, pageSize: domain.DefaultPageSize}

	for _, p := range posts {
		b.posts[p.ID] = p
		if p.ID >= b.nextID {
			b.nextID = p.ID + 1
		}
	}

	return b
}

func (b *fakeBlogs) List(_ context.Context, page int) (domain.PostPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pages = append(b.pages, page)

	if b.listErr != nil {
		return domain.PostPage{}, b.listErr
	}

	ids := make([]int, 0, len(b.posts))
	for id := range b.posts {
		ids = append(ids, int(id))
	}

	sort.Ints(ids)

	out := domain.PostPage{Count: len(ids), Results: []domain.Post{}}

	for i := (page - 1) * b.pageSize; i < len(ids) && i < page*b.pageSize; i++ {
		out.Results = append(out.Results, b.posts[domain.PostID(ids[i])])
	}

	return out, nil
}

func (b *fakeBlogs) Get(_ context.Context, id domain.PostID) (domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	post, ok := b.posts[id]
	if !ok {
		return domain.Post{}, &domain.NotFoundError{Detail: "Not found."}
	}

	return post, nil
}

func (b *fakeBlogs) Create(_ context.Context, in domain.PostInput) (domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.createErr != nil {
		return domain.Post{}, b.createErr
	}

	post := domain.Post{
		ID:              b.nextID,
		Title:           in.Title,
		Content:         in.Content,
		Author:          "1",
		AuthorUsername:  "alice",
		PublicationDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	b.posts[post.ID] = post
	b.nextID++

	return post, nil
}

func (b *fakeBlogs) Update(_ context.Context, id domain.PostID, in domain.PostInput) (domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.updateErr != nil {
		return domain.Post{}, b.updateErr
	}

	post, ok := b.posts[id]
	if !ok {
		return domain.Post{}, &domain.NotFoundError{}
	}

	post.Title, post.Content = in.Title, in.Content
	b.posts[id] = post
	b.updates = append(b.updates, in)

	return post, nil
}

func (b *fakeBlogs) Delete(_ context.Context, id domain.PostID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleteErr != nil {
		return b.deleteErr
	}

	delete(b.posts, id)

	return nil
}

// fakeAuth accepts alice/secret123 and reports everything else as bad credentials.
type fakeAuth struct {
	mu          sync.Mutex
	signupErr   error
	logoutErr   error
	signups     []domain.SignupRequest
	logoutCalls int
}

func (a *fakeAuth) Signup(_ context.Context, req domain.SignupRequest) (domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.signupErr != nil {
		return domain.User{}, a.signupErr
	}

	a.signups = append(a.signups, req)

	return domain.User{ID: "2", Username: req.Username, Email: req.Email}, nil
}

func (a *fakeAuth) Login(_ context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	if (req.Identifier == "alice" || req.Identifier == "alice@example.com") && req.Password == "secret123" {
		return domain.LoginResponse{Token: "tok123", UserID: "1", Username: "alice", Email: "alice@example.com"}, nil
	}

	return domain.LoginResponse{}, &domain.AuthenticationError{Messages: []string{"Invalid credentials"}}
}

func (a *fakeAuth) Logout(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logoutCalls++

	return a.logoutErr
}

// failingRepo cannot persist anything.
type failingRepo struct{}

func (failingRepo) Load(context.Context) (domain.AuthToken, bool, error) { return "", false, nil }

func (failingRepo) Store(context.Context, domain.AuthToken) error { return errDiskFull }

func (failingRepo) Delete(context.Context) error { return nil }

func (failingRepo) Close() error { return nil }

var errDiskFull = errors.New("disk full")
