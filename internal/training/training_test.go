package training

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/querycache"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/testutil"
	"github.com/s/trainingHub/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewService(db, querycache.New(querycache.DefaultStale, querycache.DefaultGC), testutil.Logger())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func addVideos(t *testing.T, svc *Service, subjectID string, n int) []models.TrainingVideo {
	t.Helper()
	out := make([]models.TrainingVideo, 0, n)
	for i := 0; i < n; i++ {
		v, err := svc.CreateVideo(context.Background(), subjectID, NewVideo{
			Title:    fmt.Sprintf("Video %d", i+1),
			VideoURL: fmt.Sprintf("https://videos.example.com/%d", i+1),
		})
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		completed, total int
		want             Status
	}{
		{0, 0, StatusNotStarted},
		{0, 5, StatusNotStarted},
		{39, 100, StatusNotStarted},
		{79, 200, StatusNotStarted},
		{40, 100, StatusInProgress},
		{2, 5, StatusInProgress},
		{79, 100, StatusInProgress},
		{199, 250, StatusInProgress},
		{80, 100, StatusComplete},
		{4, 5, StatusComplete},
		{5, 5, StatusComplete},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestStatusUsesExactRatio(t *testing.T) {
	assert.Equal(t, 80, Percent(199, 250))
	assert.Equal(t, StatusInProgress, StatusFor(199, 250))

	assert.Equal(t, 40, Percent(79, 200))
	assert.Equal(t, StatusNotStarted, StatusFor(79, 200))
}

func TestPercentZeroTotal(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
}

func TestCompletedCountIgnoresOtherSubjectsAndUnwatched(t *testing.T) {
	videos := []models.TrainingVideo{
		{ID: "v1", SubjectID: "s1"},
		{ID: "v2", SubjectID: "s1"},
		{ID: "v3", SubjectID: "s2"},
	}
	progress := []models.TrainingProgress{
		{VideoID: "v1", Watched: true},
		{VideoID: "v2", Watched: false},
		{VideoID: "v3", Watched: true},
	}
	assert.Equal(t, 1, CompletedCount("s1", videos, progress))
	assert.Equal(t, 1, CompletedCount("s2", videos, progress))
	assert.Equal(t, 0, CompletedCount("missing", videos, progress))
}

func TestReportTwoOfFiveWatched(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Onboarding Basics"})
	require.NoError(t, err)
	videos := addVideos(t, svc, subject.ID, 5)

	for _, v := range videos[:2] {
		_, changed, err := svc.MarkWatched(ctx, "L", v.ID)
		require.NoError(t, err)
		assert.True(t, changed)
	}

	report, err := svc.Report(ctx, "L")
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)

	row := report.Subjects[0]
	assert.Equal(t, "Onboarding Basics", row.Subject.Title)
	assert.Equal(t, 5, row.Total)
	assert.Equal(t, 2, row.Completed)
	assert.Equal(t, 40, row.Percent)
	assert.Equal(t, StatusInProgress, row.Status)
	assert.Equal(t, 40, report.Percent)
}

func TestProgressIsPerLocation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Basics"})
	require.NoError(t, err)
	videos := addVideos(t, svc, subject.ID, 2)

	_, _, err = svc.MarkWatched(ctx, "L1", videos[0].ID)
	require.NoError(t, err)

	overview, err := svc.Overview(ctx, "L2")
	require.NoError(t, err)
	assert.Equal(t, 0, overview[0].Completed)

	overview, err = svc.Overview(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, overview[0].Completed)
}

func TestMarkWatchedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Basics"})
	require.NoError(t, err)
	video := addVideos(t, svc, subject.ID, 1)[0]

	first, changed, err := svc.MarkWatched(ctx, "L", video.ID)
	require.NoError(t, err)
	require.True(t, changed)

	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	second, changed, err := svc.MarkWatched(ctx, "L", video.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))

	rows, err := storage.ListProgress(ctx, svc.db, "L")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMarkWatchedErrors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, _, err := svc.MarkWatched(ctx, "", "whatever")
	assert.ErrorIs(t, err, ErrNoLocation)

	_, _, err = svc.MarkWatched(ctx, "L", "missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestMarkWatchedInvalidatesLocationProgress(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Basics"})
	require.NoError(t, err)
	video := addVideos(t, svc, subject.ID, 1)[0]

	detail, err := svc.Subject(ctx, "L", subject.ID)
	require.NoError(t, err)
	require.Len(t, detail.Videos, 1)
	assert.False(t, detail.Videos[0].Watched)

	_, _, err = svc.MarkWatched(ctx, "L", video.ID)
	require.NoError(t, err)

	detail, err = svc.Subject(ctx, "L", subject.ID)
	require.NoError(t, err)
	assert.True(t, detail.Videos[0].Watched)
	assert.Equal(t, 100, detail.Progress.Percent)
	assert.Equal(t, StatusComplete, detail.Progress.Status)
}

func TestDeleteSubjectCascades(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	doomed, err := svc.CreateSubject(ctx, NewSubject{Title: "Doomed"})
	require.NoError(t, err)
	kept, err := svc.CreateSubject(ctx, NewSubject{Title: "Kept"})
	require.NoError(t, err)

	doomedVideos := addVideos(t, svc, doomed.ID, 3)
	keptVideo := addVideos(t, svc, kept.ID, 1)[0]

	for _, loc := range []string{"L1", "L2"} {
		for _, v := range doomedVideos {
			_, _, err := svc.MarkWatched(ctx, loc, v.ID)
			require.NoError(t, err)
		}
		_, _, err := svc.MarkWatched(ctx, loc, keptVideo.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteSubject(ctx, doomed.ID))

	var videoCount, progressCount int64
	require.NoError(t, svc.db.Model(&models.TrainingVideo{}).Where("subject_id = ?", doomed.ID).Count(&videoCount).Error)
	assert.Zero(t, videoCount)

	ids := make([]string, 0, len(doomedVideos))
	for _, v := range doomedVideos {
		ids = append(ids, v.ID)
	}
	require.NoError(t, svc.db.Model(&models.TrainingProgress{}).Where("video_id IN ?", ids).Count(&progressCount).Error)
	assert.Zero(t, progressCount)

	overview, err := svc.Overview(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.Equal(t, "Kept", overview[0].Subject.Title)
	assert.Equal(t, 1, overview[0].Completed)

	assert.ErrorIs(t, svc.DeleteSubject(ctx, doomed.ID), ErrSubjectNotFound)
}

func TestDeleteVideoRemovesProgress(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Basics"})
	require.NoError(t, err)
	videos := addVideos(t, svc, subject.ID, 2)
	_, _, err = svc.MarkWatched(ctx, "L", videos[0].ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVideo(ctx, videos[0].ID))

	overview, err := svc.Overview(ctx, "L")
	require.NoError(t, err)
	assert.Equal(t, 1, overview[0].Total)
	assert.Equal(t, 0, overview[0].Completed)
}

func TestCreateSubjectAppends(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.CreateSubject(ctx, NewSubject{Title: "A"})
	require.NoError(t, err)
	b, err := svc.CreateSubject(ctx, NewSubject{Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, a.SortOrder+1, b.SortOrder)

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "A", subjects[0].Title)
	assert.Equal(t, "B", subjects[1].Title)
}

func TestCreateSubjectValidation(t *testing.T) {
	_, err := newService(t).CreateSubject(context.Background(), NewSubject{Title: "   "})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestUpdateFields(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Old"})
	require.NoError(t, err)
	video := addVideos(t, svc, subject.ID, 1)[0]

	require.NoError(t, svc.UpdateSubjectField(ctx, subject.ID, "title", "New"))
	require.NoError(t, svc.UpdateVideoField(ctx, video.ID, "description", "Watch this first"))

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New", subjects[0].Title)

	videos, err := svc.Videos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Watch this first", videos[0].Description)

	var verr *validation.Error
	assert.ErrorAs(t, svc.UpdateSubjectField(ctx, subject.ID, "title", ""), &verr)
	assert.ErrorAs(t, svc.UpdateSubjectField(ctx, subject.ID, "sort_order", "3"), &verr)
	assert.ErrorAs(t, svc.UpdateVideoField(ctx, video.ID, "video_url", " "), &verr)
	assert.ErrorIs(t, svc.UpdateVideoField(ctx, "missing", "title", "x"), ErrVideoNotFound)

	err = svc.UpdateSubjectField(ctx, subject.ID, "accent_color", "teal")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "accent_color")
	assert.NoError(t, svc.UpdateSubjectField(ctx, subject.ID, "accent_color", "#14B8A6"))
	assert.NoError(t, svc.UpdateSubjectField(ctx, subject.ID, "accent_color", ""))
}

func TestInactiveSubjectsAreHidden(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	subject, err := svc.CreateSubject(ctx, NewSubject{Title: "Hidden"})
	require.NoError(t, err)
	require.NoError(t, svc.SetSubjectActive(ctx, subject.ID, false))

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	all, err := svc.AllSubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Subject(ctx, "L", subject.ID)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestCreateVideoUnknownSubject(t *testing.T) {
	_, err := newService(t).CreateVideo(context.Background(), "missing", NewVideo{
		Title:    "Intro",
		VideoURL: "https://videos.example.com/intro",
	})
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}
