package onboarding

import (
	"context"

	"github.com/gorilla/sessions"
	"github.com/s/trainingHub/internal/models"
)

const (
	keyIndexPrefix   = "onboarding_index:"
	keyCheckedPrefix = "onboarding_checked:"
)

// LoadStepper returns the location's stepper saved in sess, or a fresh one
// positioned at the first incomplete step.
func (s *Service) LoadStepper(ctx context.Context, sess *sessions.Session, locationID string) (*Stepper, error) {
	steps, progress, err := s.load(ctx, locationID)
	if err != nil {
		return nil, err
	}

	index, ok := sess.Values[keyIndexPrefix+locationID].(int)
	if !ok {
		return NewStepper(steps, progress), nil
	}
	checked, _ := sess.Values[keyCheckedPrefix+locationID].([]string)
	return restoreStepper(steps, progress, index, checked), nil
}

// SaveStepper stores the stepper position in sess. The caller saves the
// session.
func SaveStepper(sess *sessions.Session, locationID string, st *Stepper) {
	sess.Values[keyIndexPrefix+locationID] = st.Index()
	sess.Values[keyCheckedPrefix+locationID] = st.CheckedIDs()
}

// ClearStepper forgets the saved position.
func ClearStepper(sess *sessions.Session, locationID string) {
	delete(sess.Values, keyIndexPrefix+locationID)
	delete(sess.Values, keyCheckedPrefix+locationID)
}

// StepView is one step as rendered by the onboarding flow.
type StepView struct {
	models.OnboardingStep
	Number        int    `json:"number"`
	Checked       bool   `json:"checked"`
	SchedulingURL string `json:"scheduling_url,omitempty"`
}

// View is the onboarding flow screen.
type View struct {
	Steps    []StepView `json:"steps"`
	Index    int        `json:"index"`
	Total    int        `json:"total"`
	Finished bool       `json:"finished"`
	Current  *StepView  `json:"current,omitempty"`
}

func (s *Service) View(st *Stepper) View {
	v := View{
		Steps:    make([]StepView, 0, st.Len()),
		Index:    st.Index(),
		Total:    st.Len(),
		Finished: st.Finished(),
	}
	for i, step := range st.steps {
		sv := StepView{OnboardingStep: step, Number: i + 1, Checked: st.Checked(step.ID)}
		if url, ok := s.SchedulingLink(i + 1); ok {
			sv.SchedulingURL = url
		}
		v.Steps = append(v.Steps, sv)
	}
	if !v.Finished {
		v.Current = &v.Steps[v.Index]
	}
	return v
}
