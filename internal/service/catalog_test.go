package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
)

func seedCatalog(t *testing.T, f *fixture, n int) []repository.Item {
	t.Helper()
	items := make([]repository.Item, 0, n)
	for i := range n {
		items = append(items, f.seed(t, repository.KindCourse, func(it *repository.Item) {
			it.Title = fmt.Sprintf("Course %02d", i)
			it.CreatedAt = f.clock.now().Add(time.Duration(i) * time.Minute)
		}))
	}
	return items
}

func titles(views []repository.ItemView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Title)
	}
	return out
}

func TestCatalogService_ListItems(t *testing.T) {
	ctx := context.Background()

	t.Run("cursor pages walk the whole catalog", func(t *testing.T) {
		f := newFixture(t)
		seedCatalog(t, f, 5)
		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)

		first, err := svc.ListItems(ctx, ListItemsInput{UserID: "user-1", Kind: repository.KindCourse, Page: PageParams{Limit: "2"}})
		require.NoError(t, err)
		require.Equal(t, PageModeCursor, first.Meta.Mode)
		require.Equal(t, []string{"Course 04", "Course 03"}, titles(first.Items))
		require.NotNil(t, first.Meta.NextCursor)

		second, err := svc.ListItems(ctx, ListItemsInput{
			UserID: "user-1", Kind: repository.KindCourse, Page: PageParams{Limit: "2", Cursor: *first.Meta.NextCursor},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"Course 02", "Course 01"}, titles(second.Items))

		third, err := svc.ListItems(ctx, ListItemsInput{
			UserID: "user-1", Kind: repository.KindCourse, Page: PageParams{Limit: "2", Cursor: *second.Meta.NextCursor},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"Course 00"}, titles(third.Items))
		require.Nil(t, third.Meta.NextCursor)
	})

	t.Run("page mode", func(t *testing.T) {
		f := newFixture(t)
		seedCatalog(t, f, 5)
		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)

		out, err := svc.ListItems(ctx, ListItemsInput{Kind: repository.KindCourse, Page: PageParams{Limit: "2", Page: "2"}})
		require.NoError(t, err)
		require.Equal(t, PageModePage, out.Meta.Mode)
		require.Equal(t, []string{"Course 02", "Course 01"}, titles(out.Items))
		require.Equal(t, 3, *out.Meta.NextPage)
		require.Equal(t, 1, *out.Meta.PrevPage)

		out, err = svc.ListItems(ctx, ListItemsInput{Kind: repository.KindCourse, Page: PageParams{Limit: "2", Page: "3"}})
		require.NoError(t, err)
		require.Len(t, out.Items, 1)
		require.Nil(t, out.Meta.NextPage)
	})

	t.Run("offset mode", func(t *testing.T) {
		f := newFixture(t)
		seedCatalog(t, f, 3)
		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)

		out, err := svc.ListItems(ctx, ListItemsInput{Kind: repository.KindCourse, Page: PageParams{Limit: "1", Offset: "1"}})
		require.NoError(t, err)
		require.Equal(t, PageModeOffset, out.Meta.Mode)
		require.Equal(t, []string{"Course 01"}, titles(out.Items))
		require.Equal(t, 2, *out.Meta.NextOffset)
	})

	t.Run("popular sort and is_registered", func(t *testing.T) {
		f := newFixture(t)
		items := seedCatalog(t, f, 3)
		f.apply(t, repository.KindCourse, "user-1", items[0].ID)
		f.apply(t, repository.KindCourse, "user-2", items[0].ID)
		cancelled := f.apply(t, repository.KindCourse, "user-1", items[1].ID)
		_, err := f.svc.Cancel(ctx, CancelInput{UserID: "user-1", PaymentID: cancelled.PaymentID})
		require.NoError(t, err)

		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)
		out, err := svc.ListItems(ctx, ListItemsInput{UserID: "user-1", Kind: repository.KindCourse, Sort: "popular"})
		require.NoError(t, err)
		require.Equal(t, []string{"Course 00", "Course 01", "Course 02"}, titles(out.Items))
		require.Equal(t, int64(2), out.Items[0].RegistrationsCount)
		require.True(t, out.Items[0].IsRegistered)
		// отменённая регистрация не считается
		require.False(t, out.Items[1].IsRegistered)
		require.Equal(t, int64(1), out.Items[1].RegistrationsCount)
	})

	t.Run("status=available hides registered and unavailable items", func(t *testing.T) {
		f := newFixture(t)
		items := seedCatalog(t, f, 2)
		f.seed(t, repository.KindCourse, func(it *repository.Item) {
			it.Title = "Closed"
			it.IsActive = false
		})
		f.apply(t, repository.KindCourse, "user-1", items[1].ID)

		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)
		out, err := svc.ListItems(ctx, ListItemsInput{UserID: "user-1", Kind: repository.KindCourse, Status: "available"})
		require.NoError(t, err)
		require.Equal(t, []string{"Course 00"}, titles(out.Items))
	})

	t.Run("search", func(t *testing.T) {
		f := newFixture(t)
		seedCatalog(t, f, 2)
		f.seed(t, repository.KindCourse, func(it *repository.Item) { it.Title = "Advanced Postgres" })

		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)
		out, err := svc.ListItems(ctx, ListItemsInput{Kind: repository.KindCourse, Search: " postgres "})
		require.NoError(t, err)
		require.Equal(t, []string{"Advanced Postgres"}, titles(out.Items))
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		svc := NewCatalogService(zap.NewNop(), f.store, f.clock.now)
		otherSort := encodeCursor(cursorPayload{Sort: repository.SortPopular, ItemCursor: repository.ItemCursor{ID: uuid.NewString()}})
		badID := encodeCursor(cursorPayload{Sort: repository.SortCreated, ItemCursor: repository.ItemCursor{ID: "not-a-uuid"}})
		hugePage := strconv.Itoa(math.MaxInt/maxPageLimit + 2)

		cases := []struct {
			in    ListItemsInput
			field string
		}{
			{in: ListItemsInput{Sort: "newest"}, field: "sort"},
			{in: ListItemsInput{Status: "closed"}, field: "status"},
			{in: ListItemsInput{Page: PageParams{Limit: "0"}}, field: "limit"},
			{in: ListItemsInput{Page: PageParams{Limit: "abc"}}, field: "limit"},
			{in: ListItemsInput{Page: PageParams{Page: "0"}}, field: "page"},
			{in: ListItemsInput{Page: PageParams{Offset: "-1"}}, field: "offset"},
			{in: ListItemsInput{Page: PageParams{Cursor: "not-a-cursor"}}, field: "cursor"},
			{in: ListItemsInput{Page: PageParams{Cursor: otherSort}}, field: "cursor"},
			{in: ListItemsInput{Page: PageParams{Cursor: badID}}, field: "cursor"},
			{in: ListItemsInput{Page: PageParams{Limit: "100", Page: hugePage}}, field: "page"},
			{in: ListItemsInput{Page: PageParams{Offset: strconv.Itoa(math.MaxInt)}}, field: "offset"},
		}
		for _, tc := range cases {
			tc.in.Kind = repository.KindCourse
			_, err := svc.ListItems(ctx, tc.in)
			serr := requireKind(t, err, KindValidation)
			require.Contains(t, serr.Fields, tc.field)
		}
	})

	t.Run("largest page that fits", func(t *testing.T) {
		n := math.MaxInt/maxPageLimit + 1
		pg, err := parsePage(PageParams{Limit: "100", Page: strconv.Itoa(n)}, repository.SortCreated)
		require.NoError(t, err)
		require.Equal(t, (n-1)*maxPageLimit, pg.offset)
		require.Positive(t, pg.offset)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		pg, err := parsePage(PageParams{Limit: "1000"}, repository.SortCreated)
		require.NoError(t, err)
		require.Equal(t, maxPageLimit, pg.limit)
		require.Equal(t, maxPageLimit+1, pg.fetchLimit())
	})
}
