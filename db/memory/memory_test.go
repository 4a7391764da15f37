package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinkoogupta/eduzap/requests"
)

func steppedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seed(t *testing.T, r *Repository, titles ...string) []requests.Record {
	t.Helper()
	out := make([]requests.Record, 0, len(titles))
	for _, title := range titles {
		rec, err := r.Insert(context.Background(), requests.NewRecord{
			Name:  "Asha",
			Phone: "9876543210",
			Title: title,
		})
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func titles(recs []requests.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func TestInsertAssignsIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewRepository(WithClock(func() time.Time { return now }))

	rec, err := r.Insert(context.Background(), requests.NewRecord{Name: "Asha", Phone: "9876543210", Title: "Books", Image: "https://img/x.png"})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.Equal(t, "https://img/x.png", rec.Image)
	assert.Equal(t, 1, r.Len())
}

func TestFindRecentWithPaging(t *testing.T) {
	r := NewRepository(WithClock(steppedClock(time.Unix(0, 0))))
	seed(t, r, "one", "two", "three", "four", "five", "six", "seven")
	ctx := context.Background()

	total, err := r.Count(ctx, requests.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	first, err := r.Find(ctx, requests.Filter{}, requests.SortRecent, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"seven", "six", "five", "four", "three"}, titles(first))

	second, err := r.Find(ctx, requests.Filter{}, requests.SortRecent, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, titles(second))

	beyond, err := r.Find(ctx, requests.Filter{}, requests.SortRecent, 50, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestFindRecentSameTimestampKeepsInsertionOrder(t *testing.T) {
	fixed := time.Unix(100, 0)
	r := NewRepository(WithClock(func() time.Time { return fixed }))
	seed(t, r, "a", "b", "c")

	got, err := r.Find(context.Background(), requests.Filter{}, requests.SortRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(got))
}

func TestFindTitleCollation(t *testing.T) {
	r := NewRepository(WithClock(steppedClock(time.Unix(0, 0))))
	seed(t, r, "banana", "Éclair", "Apple", "cherry", "delta")
	ctx := context.Background()

	asc, err := r.Find(ctx, requests.Filter{}, requests.SortTitleAsc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "banana", "cherry", "delta", "Éclair"}, titles(asc))

	desc, err := r.Find(ctx, requests.Filter{}, requests.SortTitleDesc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Éclair", "delta", "cherry", "banana", "Apple"}, titles(desc))
}

func TestFindTitleTiesNewestFirst(t *testing.T) {
	r := NewRepository(WithClock(steppedClock(time.Unix(0, 0))))
	seed(t, r, "apple", "APPLE", "Apple")

	for _, s := range []requests.Sort{requests.SortTitleAsc, requests.SortTitleDesc} {
		got, err := r.Find(context.Background(), requests.Filter{}, s, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Apple", "APPLE", "apple"}, titles(got), s.String())
	}
}

func TestFilterTitleContains(t *testing.T) {
	r := NewRepository(WithClock(steppedClock(time.Unix(0, 0))))
	seed(t, r, "CUET Prep Books", "NEET notes", "cuet mock tests", "Guitar")
	ctx := context.Background()

	f := requests.Filter{TitleContains: "cuet"}
	total, err := r.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	got, err := r.Find(ctx, f, requests.SortRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"cuet mock tests", "CUET Prep Books"}, titles(got))

	none, err := r.Count(ctx, requests.Filter{TitleContains: "%"})
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestDelete(t *testing.T) {
	r := NewRepository()
	recs := seed(t, r, "one")
	ctx := context.Background()

	require.NoError(t, r.Delete(ctx, recs[0].ID))
	assert.Zero(t, r.Len())

	assert.ErrorIs(t, r.Delete(ctx, recs[0].ID), requests.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "not-a-uuid"), requests.ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	r := NewRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Insert(ctx, requests.NewRecord{Name: "a", Phone: "9876543210", Title: "t"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = r.Count(ctx, requests.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
