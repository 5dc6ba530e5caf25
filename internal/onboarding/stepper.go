package onboarding

import "github.com/s/trainingHub/internal/models"

// Stepper walks a location through the active onboarding steps.
//
// Index runs from 0 to len(steps); len(steps) is the completion screen.
// A checked step stays checked for the lifetime of the stepper.
type Stepper struct {
	steps   []models.OnboardingStep
	index   int
	checked map[string]bool
}

// NewStepper starts at the first step without completed progress.
func NewStepper(steps []models.OnboardingStep, progress []models.OnboardingProgress) *Stepper {
	s := &Stepper{steps: steps, checked: completedSet(progress)}
	s.index = len(steps)
	for i, step := range steps {
		if !s.checked[step.ID] {
			s.index = i
			break
		}
	}
	return s
}

// restoreStepper rebuilds a stepper from a saved index and checked ids,
// merged with the completed progress rows.
func restoreStepper(steps []models.OnboardingStep, progress []models.OnboardingProgress, index int, checked []string) *Stepper {
	s := &Stepper{steps: steps, checked: completedSet(progress)}
	for _, id := range checked {
		s.checked[id] = true
	}
	switch {
	case index < 0:
		index = 0
	case index > len(steps):
		index = len(steps)
	}
	s.index = index
	return s
}

func completedSet(progress []models.OnboardingProgress) map[string]bool {
	set := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.Completed {
			set[p.StepID] = true
		}
	}
	return set
}

func (s *Stepper) Index() int { return s.index }

func (s *Stepper) Len() int { return len(s.steps) }

// Finished reports whether the completion screen is showing.
func (s *Stepper) Finished() bool { return s.index >= len(s.steps) }

// Complete reports whether the completion screen is showing and every step
// has been checked.
func (s *Stepper) Complete() bool {
	if !s.Finished() {
		return false
	}
	for _, step := range s.steps {
		if !s.checked[step.ID] {
			return false
		}
	}
	return true
}

// Current returns the step on screen; false on the completion screen.
func (s *Stepper) Current() (models.OnboardingStep, bool) {
	if s.Finished() {
		return models.OnboardingStep{}, false
	}
	return s.steps[s.index], true
}

func (s *Stepper) Checked(stepID string) bool { return s.checked[stepID] }

// CheckedIDs lists checked step ids in step order.
func (s *Stepper) CheckedIDs() []string {
	ids := make([]string, 0, len(s.checked))
	for _, step := range s.steps {
		if s.checked[step.ID] {
			ids = append(ids, step.ID)
		}
	}
	return ids
}

// markChecked records stepID as checked and reports whether it was new.
func (s *Stepper) markChecked(stepID string) bool {
	if s.checked[stepID] {
		return false
	}
	s.checked[stepID] = true
	return true
}

// Continue advances one step; from the last step it moves to the
// completion screen.
func (s *Stepper) Continue() {
	if s.index < len(s.steps) {
		s.index++
	}
}

// Back goes one step back, never below the first step.
func (s *Stepper) Back() {
	if s.index > 0 {
		s.index--
	}
}
