package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/staff-portal/internal/domain"
)

type announcementFixture struct {
	employees *fakeEmployees
	repo      *fakeAnnouncements
	notes     *fakeNotifications
	svc       *AnnouncementService
}

func newAnnouncementFixture() *announcementFixture {
	left := staff("staff-left", "dept-adm")
	left.Active = false
	f := &announcementFixture{
		employees: newFakeEmployees(dg(), director("dir-1", "dept-adm"), director("dir-2", "dept-fin"),
			staff("staff-1", "dept-adm"), staff("staff-9", "dept-fin"), left),
		repo:  newFakeAnnouncements(),
		notes: &fakeNotifications{},
	}
	f.svc = NewAnnouncementService(AnnouncementDependencies{
		AnnouncementRepo: f.repo,
		EmployeeRepo:     f.employees,
		OrgRepo:          newFakeOrg(),
		Notifier:         NewNotificationService(NotificationDependencies{NotificationRepo: f.notes, Clock: fixedClock}),
		Transactor:       &noopTx{},
		Clock:            fixedClock,
	})
	return f
}

func recipients(notes *fakeNotifications) []string {
	var out []string
	for _, n := range notes.rows {
		out = append(out, n.RecipientID)
	}
	return out
}

func TestDepartmentAnnouncementReachesDepartmentOnly(t *testing.T) {
	f := newAnnouncementFixture()
	ctx := context.Background()
	dir := f.employees.get("dir-1")

	a, err := f.svc.Create(ctx, &dir, AnnouncementInput{Title: " Audit week ", Content: "Files due Friday."})
	require.NoError(t, err)
	require.NotNil(t, a.DepartmentID)
	assert.Equal(t, "dept-adm", *a.DepartmentID)
	assert.True(t, a.Active)

	assert.Equal(t, []string{"staff-1"}, recipients(f.notes))
	assert.Equal(t, domain.NotificationAnnouncement, f.notes.rows[0].Type)
	assert.Equal(t, "Audit week", f.notes.rows[0].Title)

	_, err = f.svc.Create(ctx, &dir, AnnouncementInput{DepartmentID: strPtr("dept-fin"), Title: "x", Content: "y"})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	worker := f.employees.get("staff-1")
	_, err = f.svc.Create(ctx, &worker, AnnouncementInput{Title: "x", Content: "y"})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	_, err = f.svc.Create(ctx, &dir, AnnouncementInput{Title: "", Content: ""})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestGlobalAnnouncementAndVisibility(t *testing.T) {
	f := newAnnouncementFixture()
	ctx := context.Background()
	boss := dg()

	_, err := f.svc.Create(ctx, &boss, AnnouncementInput{DepartmentID: strPtr("dept-none"), Title: "x", Content: "y"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	global, err := f.svc.Create(ctx, &boss, AnnouncementInput{Title: "Public holiday", Content: "Office closed on Monday."})
	require.NoError(t, err)
	assert.Nil(t, global.DepartmentID)
	assert.ElementsMatch(t, []string{"dir-1", "dir-2", "staff-1", "staff-9"}, recipients(f.notes))

	finance, err := f.svc.Create(ctx, &boss, AnnouncementInput{DepartmentID: strPtr("dept-fin"), Title: "Budget", Content: "Submit estimates."})
	require.NoError(t, err)

	worker := f.employees.get("staff-1")
	seen, err := f.svc.List(ctx, &worker, 20, 0)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, global.ID, seen[0].ID)

	all, err := f.svc.List(ctx, &boss, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dir2 := f.employees.get("dir-2")
	err = f.svc.Deactivate(ctx, &dir2, finance.ID)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	require.NoError(t, f.svc.Deactivate(ctx, &boss, finance.ID))
	err = f.svc.Deactivate(ctx, &boss, finance.ID)
	assert.Equal(t, "CONFLICT", errCode(t, err))
	err = f.svc.Deactivate(ctx, &boss, "missing")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))

	fin := f.employees.get("staff-9")
	seen, err = f.svc.List(ctx, &fin, 20, 0)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, global.ID, seen[0].ID)
}

func TestNewsletterDraftThenPublish(t *testing.T) {
	f := newAnnouncementFixture()
	ctx := context.Background()
	dir := f.employees.get("dir-2")

	draft, err := f.svc.CreateNewsletter(ctx, &dir, NewsletterInput{Title: "Finance monthly", Content: "Highlights."})
	require.NoError(t, err)
	assert.Equal(t, []string{"dept-fin"}, draft.DepartmentIDs)
	assert.False(t, draft.Published())
	assert.Empty(t, f.notes.rows)

	_, err = f.svc.CreateNewsletter(ctx, &dir, NewsletterInput{Title: "x", Content: "y", DepartmentIDs: []string{"dept-adm"}})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	worker := f.employees.get("staff-9")
	listed, err := f.svc.ListNewsletters(ctx, &worker, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)

	other := f.employees.get("dir-1")
	_, err = f.svc.PublishNewsletter(ctx, &other, draft.ID)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	published, err := f.svc.PublishNewsletter(ctx, &dir, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, testNow, *published.PublishedAt)
	assert.Equal(t, []string{"staff-9"}, recipients(f.notes))

	_, err = f.svc.PublishNewsletter(ctx, &dir, draft.ID)
	assert.Equal(t, "CONFLICT", errCode(t, err))

	listed, err = f.svc.ListNewsletters(ctx, &worker, 20, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, draft.ID, listed[0].ID)

	admin := f.employees.get("staff-1")
	listed, err = f.svc.ListNewsletters(ctx, &admin, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestNewsletterPublishedOnCreate(t *testing.T) {
	f := newAnnouncementFixture()
	ctx := context.Background()
	boss := dg()

	_, err := f.svc.CreateNewsletter(ctx, &boss, NewsletterInput{Title: "x", Content: "y", DepartmentIDs: []string{"dept-none"}})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	n, err := f.svc.CreateNewsletter(ctx, &boss, NewsletterInput{
		Title:         "Quarterly bulletin",
		Content:       "News from both departments.",
		DepartmentIDs: []string{"dept-adm", "dept-fin", "dept-adm"},
		Publish:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dept-adm", "dept-fin"}, n.DepartmentIDs)
	assert.True(t, n.Published())
	assert.ElementsMatch(t, []string{"dir-1", "staff-1", "dir-2", "staff-9"}, recipients(f.notes))
	assert.Equal(t, "/newsletters/"+n.ID, f.notes.rows[0].Link)

	worker := f.employees.get("staff-1")
	_, err = f.svc.CreateNewsletter(ctx, &worker, NewsletterInput{Title: "x", Content: "y"})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}
