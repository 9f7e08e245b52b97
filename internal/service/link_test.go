package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/model"
	"github.com/sakif/linkpage/internal/repository"
)

// mockLinkRepo implements repository.LinkRepository in memory, with the
// same contracts the sqlite implementation honors: dense per-owner
// positions, filtered no-op delete, in-"transaction" reorder validation.
type mockLinkRepo struct {
	links  map[int64]*model.Link
	nextID int64

	// failWith, when set, makes every method return this error — used to
	// exercise the storage-failure paths.
	failWith error
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{links: make(map[int64]*model.Link)}
}

func (m *mockLinkRepo) ownerLinks(ownerID string) []*model.Link {
	var out []*model.Link
	for _, l := range m.links {
		if l.UserID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (m *mockLinkRepo) Create(_ context.Context, link *model.Link) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.nextID++
	link.ID = m.nextID
	link.Position = len(m.ownerLinks(link.UserID))
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *mockLinkRepo) GetByID(_ context.Context, id int64) (*model.Link, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	l, ok := m.links[id]
	if !ok {
		return nil, apperror.NotFound("link", "mock")
	}
	result := *l
	return &result, nil
}

func (m *mockLinkRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Link, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Link{}
	for _, l := range m.ownerLinks(ownerID) {
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockLinkRepo) Update(_ context.Context, link *model.Link) error {
	if m.failWith != nil {
		return m.failWith
	}
	stored, ok := m.links[link.ID]
	if !ok || stored.UserID != link.UserID {
		return apperror.NotFound("link", "mock")
	}
	stored.Title = link.Title
	stored.URL = link.URL
	return nil
}

func (m *mockLinkRepo) Delete(_ context.Context, id int64, ownerID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	l, ok := m.links[id]
	if !ok || l.UserID != ownerID {
		return nil // filtered no-op
	}
	delete(m.links, id)
	for i, rest := range m.ownerLinks(ownerID) {
		rest.Position = i
	}
	return nil
}

func (m *mockLinkRepo) Reorder(_ context.Context, ownerID string, ids []int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	owned := m.ownerLinks(ownerID)
	ownedSet := make(map[int64]bool, len(owned))
	for _, l := range owned {
		ownedSet[l.ID] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !ownedSet[id] || seen[id] {
			return apperror.ValidationFailed("links", "invalid reorder sequence")
		}
		seen[id] = true
	}
	for i, id := range ids {
		m.links[id].Position = i
	}
	next := len(ids)
	for _, l := range owned {
		if !seen[l.ID] {
			m.links[l.ID].Position = next
			next++
		}
	}
	return nil
}

var _ repository.LinkRepository = (*mockLinkRepo)(nil)

func newTestLinkService(t *testing.T) (*LinkService, *mockLinkRepo) {
	t.Helper()
	repo := newMockLinkRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewLinkService(repo, logger), repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateLink_Success(t *testing.T) {
	svc, _ := newTestLinkService(t)

	link, err := svc.Create(context.Background(), "owner-a", "My Blog", "https://blog.example")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if link.ID == 0 {
		t.Error("expected link to have an ID")
	}
	if link.Title != "My Blog" {
		t.Errorf("Title = %q, want %q", link.Title, "My Blog")
	}
	if link.Position != 0 {
		t.Errorf("Position = %d, want 0", link.Position)
	}
}

func TestCreateLink_TrimsTitle(t *testing.T) {
	svc, _ := newTestLinkService(t)

	link, err := svc.Create(context.Background(), "owner-a", "  spaced  ", "https://a.example")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if link.Title != "spaced" {
		t.Errorf("Title = %q, want trimmed %q", link.Title, "spaced")
	}
}

func TestCreateLink_Validation(t *testing.T) {
	svc, _ := newTestLinkService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		title string
		url   string
	}{
		{"empty title", "", "https://a.example"},
		{"whitespace title", "   ", "https://a.example"},
		{"title too long", strings.Repeat("a", MaxTitleLength+1), "https://a.example"},
		{"empty url", "ok", ""},
		{"relative url", "ok", "/just/a/path"},
		{"no host", "ok", "https://"},
		{"javascript scheme", "ok", "javascript:alert(1)"},
		{"ftp scheme", "ok", "ftp://files.example"},
		{"url too long", "ok", "https://a.example/" + strings.Repeat("x", MaxURLLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "owner-a", tt.title, tt.url)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create(%q, %q) error = %v, want ErrValidation", tt.title, tt.url, err)
			}
		})
	}
}

func TestCreateLink_NoSession(t *testing.T) {
	svc, repo := newTestLinkService(t)

	_, err := svc.Create(context.Background(), "", "title", "https://a.example")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Create() without owner: error = %v, want ErrUnauthorized", err)
	}
	if len(repo.links) != 0 {
		t.Error("unauthenticated create must not touch storage")
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListLinks_NoSession(t *testing.T) {
	svc, _ := newTestLinkService(t)

	_, err := svc.List(context.Background(), "")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("List() without owner: error = %v, want ErrUnauthorized", err)
	}
}

func TestListLinks_SortedAfterMutations(t *testing.T) {
	svc, _ := newTestLinkService(t)
	ctx := context.Background()

	l1, _ := svc.Create(ctx, "owner-a", "one", "https://1.example")
	l2, _ := svc.Create(ctx, "owner-a", "two", "https://2.example")
	l3, _ := svc.Create(ctx, "owner-a", "three", "https://3.example")

	if err := svc.Reorder(ctx, "owner-a", []int64{l2.ID, l3.ID, l1.ID}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if err := svc.Delete(ctx, "owner-a", l3.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	links, err := svc.List(ctx, "owner-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(links) != 2 || links[0].ID != l2.ID || links[1].ID != l1.ID {
		t.Errorf("list after reorder+delete = %+v, want [%d, %d]", links, l2.ID, l1.ID)
	}
	for i, l := range links {
		if l.Position != i {
			t.Errorf("links[%d].Position = %d, want %d", i, l.Position, i)
		}
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateLink_ForbiddenIsNotNotFound(t *testing.T) {
	svc, _ := newTestLinkService(t)
	ctx := context.Background()

	link, _ := svc.Create(ctx, "owner-a", "mine", "https://a.example")

	// Another user editing it gets Forbidden — the link exists, the
	// caller just doesn't own it.
	_, err := svc.Update(ctx, "owner-b", link.ID, "stolen", "https://b.example")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() by non-owner: error = %v, want ErrForbidden", err)
	}

	// A genuinely missing link gets NotFound.
	_, err = svc.Update(ctx, "owner-b", 9999, "title", "https://b.example")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() of missing link: error = %v, want ErrNotFound", err)
	}
}

func TestUpdateLink_Success(t *testing.T) {
	svc, _ := newTestLinkService(t)
	ctx := context.Background()

	link, _ := svc.Create(ctx, "owner-a", "old", "https://old.example")

	updated, err := svc.Update(ctx, "owner-a", link.ID, "new", "https://new.example")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "new" || updated.URL != "https://new.example" {
		t.Errorf("updated = (%q, %q), want (new, https://new.example)", updated.Title, updated.URL)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteLink_InvalidID(t *testing.T) {
	svc, _ := newTestLinkService(t)

	for _, id := range []int64{0, -3} {
		err := svc.Delete(context.Background(), "owner-a", id)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Delete(%d) error = %v, want ErrValidation", id, err)
		}
	}
}

func TestDeleteLink_ForeignLinkMaskedAsSuccess(t *testing.T) {
	svc, repo := newTestLinkService(t)
	ctx := context.Background()

	link, _ := svc.Create(ctx, "owner-a", "mine", "https://a.example")

	// owner-b's delete of owner-a's link reports success and changes nothing.
	if err := svc.Delete(ctx, "owner-b", link.ID); err != nil {
		t.Errorf("Delete() by non-owner: error = %v, want nil", err)
	}
	if _, ok := repo.links[link.ID]; !ok {
		t.Error("non-owner delete removed the row")
	}
}

// =========================================================================
// REORDER TESTS
// =========================================================================

func TestReorderLinks_InvalidIDFailsWholeBatch(t *testing.T) {
	svc, _ := newTestLinkService(t)
	ctx := context.Background()

	l1, _ := svc.Create(ctx, "owner-a", "one", "https://1.example")
	l2, _ := svc.Create(ctx, "owner-a", "two", "https://2.example")
	foreign, _ := svc.Create(ctx, "owner-b", "theirs", "https://b.example")

	err := svc.Reorder(ctx, "owner-a", []int64{l2.ID, foreign.ID, l1.ID})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Reorder() with foreign id: error = %v, want ErrValidation", err)
	}

	links, _ := svc.List(ctx, "owner-a")
	if links[0].ID != l1.ID || links[1].ID != l2.ID {
		t.Errorf("order changed after rejected reorder: %+v", links)
	}
}

func TestReorderLinks_StorageFailureWrapped(t *testing.T) {
	svc, repo := newTestLinkService(t)
	repo.failWith = errors.New("disk on fire")

	err := svc.Reorder(context.Background(), "owner-a", []int64{1})
	if err == nil {
		t.Fatal("Reorder() should propagate storage failure")
	}
	// Storage failures stay untyped — the handler maps them to a plain 500.
	if errors.Is(err, apperror.ErrValidation) {
		t.Errorf("storage failure mistyped as validation: %v", err)
	}
}
