package training

import (
	"math"

	"github.com/s/trainingHub/internal/models"
)

type Status string

const (
	StatusComplete   Status = "Complete"
	StatusInProgress Status = "In Progress"
	StatusNotStarted Status = "Not Started"
)

// SubjectProgress is the completion of one subject for one location.
type SubjectProgress struct {
	Subject   models.TrainingSubject `json:"subject"`
	Total     int                    `json:"total"`
	Completed int                    `json:"completed"`
	Percent   int                    `json:"percent"`
	Status    Status                 `json:"status"`
}

// Percent is completed/total as a rounded percentage, 0 when total is 0.
func Percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// StatusFor grades completed/total on the exact ratio; Percent is rounded
// and only for display.
func StatusFor(completed, total int) Status {
	switch {
	case total > 0 && completed*100 >= 80*total:
		return StatusComplete
	case total > 0 && completed*100 >= 40*total:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// watchedSet returns the ids of watched videos.
func watchedSet(progress []models.TrainingProgress) map[string]bool {
	set := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.Watched {
			set[p.VideoID] = true
		}
	}
	return set
}

// CompletedCount counts watched progress rows whose video belongs to subjectID.
func CompletedCount(subjectID string, videos []models.TrainingVideo, progress []models.TrainingProgress) int {
	watched := watchedSet(progress)
	n := 0
	for _, v := range videos {
		if v.SubjectID == subjectID && watched[v.ID] {
			n++
		}
	}
	return n
}

// Summarize computes SubjectProgress for every subject, keeping subject order.
func Summarize(subjects []models.TrainingSubject, videos []models.TrainingVideo, progress []models.TrainingProgress) []SubjectProgress {
	watched := watchedSet(progress)

	totals := make(map[string]int)
	done := make(map[string]int)
	for _, v := range videos {
		totals[v.SubjectID]++
		if watched[v.ID] {
			done[v.SubjectID]++
		}
	}

	out := make([]SubjectProgress, 0, len(subjects))
	for _, s := range subjects {
		pct := Percent(done[s.ID], totals[s.ID])
		out = append(out, SubjectProgress{
			Subject:   s,
			Total:     totals[s.ID],
			Completed: done[s.ID],
			Percent:   pct,
			Status:    StatusFor(done[s.ID], totals[s.ID]),
		})
	}
	return out
}

// Report is the location's training report.
type Report struct {
	Subjects  []SubjectProgress `json:"subjects"`
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Percent   int               `json:"percent"`
}

func BuildReport(subjects []models.TrainingSubject, videos []models.TrainingVideo, progress []models.TrainingProgress) Report {
	rows := Summarize(subjects, videos, progress)
	r := Report{Subjects: rows}
	for _, row := range rows {
		r.Total += row.Total
		r.Completed += row.Completed
	}
	r.Percent = Percent(r.Completed, r.Total)
	return r
}
