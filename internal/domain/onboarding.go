package domain

import (
	"strings"
	"time"
)

// ============================================================
// Application: candidate intake form
// ============================================================

// ReviewStatus is the admin decision on an application.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Application is the intake form a candidate submits once.
type Application struct {
	ID                string       `json:"id"`
	ProfileID         string       `json:"profile_id"`
	DesiredRole       Role         `json:"desired_role"`
	Experience        string       `json:"experience"`
	Availability      string       `json:"availability"`
	Motivation        string       `json:"motivation"`
	CVURL             string       `json:"cv_url,omitempty"`
	CVPath            string       `json:"cv_path,omitempty"`
	FrameworkAccepted bool         `json:"ethical_framework_accepted"`
	ReviewStatus      ReviewStatus `json:"review_status"`
	CreatedAt         *time.Time   `json:"created_at,omitempty"`
}

// ApplicationRequest is the body for POST /v1/onboarding/application.
type ApplicationRequest struct {
	DesiredRole       Role   `json:"desired_role"`
	Experience        string `json:"experience"`
	Availability      string `json:"availability"`
	Motivation        string `json:"motivation"`
	FrameworkAccepted bool   `json:"ethical_framework_accepted"`
}

// Validate checks the required fields of the form.
func (r *ApplicationRequest) Validate() error {
	if !r.DesiredRole.Valid() {
		return &ErrValidation{Field: "desired_role", Message: "must be fixer or closer"}
	}
	if strings.TrimSpace(r.Experience) == "" {
		return &ErrValidation{Field: "experience", Message: "required"}
	}
	if strings.TrimSpace(r.Availability) == "" {
		return &ErrValidation{Field: "availability", Message: "required"}
	}
	if strings.TrimSpace(r.Motivation) == "" {
		return &ErrValidation{Field: "motivation", Message: "required"}
	}
	if !r.FrameworkAccepted {
		return &ErrValidation{Field: "ethical_framework_accepted", Message: "the ethical framework must be accepted"}
	}
	return nil
}

// ReviewRequest is the body for POST /v1/admin/applications/{id}/review.
type ReviewRequest struct {
	Decision ReviewStatus `json:"decision"`
}

// ============================================================
// TrainingProgress: one row per profile once onboarding starts
// ============================================================

// TrainingModule names the two training modules.
type TrainingModule string

const (
	ModuleCommon TrainingModule = "common"
	ModuleRole   TrainingModule = "role"
)

// TrainingProgress tracks modules, quizzes and the test-call recording.
type TrainingProgress struct {
	ID                    string     `json:"id"`
	ProfileID             string     `json:"profile_id"`
	ModuleCommonCompleted bool       `json:"module_common_completed"`
	ModuleRoleCompleted   bool       `json:"module_role_completed"`
	OnboardingQuizScore   *int       `json:"onboarding_quiz_score"`
	OnboardingQuizPassed  bool       `json:"onboarding_quiz_passed"`
	QuizScore             *int       `json:"quiz_score"`
	QuizPassed            bool       `json:"quiz_passed"`
	TestCallURL           string     `json:"test_call_url,omitempty"`
	TestCallPath          string     `json:"test_call_path,omitempty"`
	TestCallValidated     bool       `json:"test_call_validated"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
}

// ModuleContent is a rendered training module.
type ModuleContent struct {
	Module    TrainingModule `json:"module"`
	Title     string         `json:"title"`
	HTML      string         `json:"html"`
	Completed bool           `json:"completed"`
	Locked    bool           `json:"locked"`
}

// QuizSubmission is the body of both quiz endpoints.
type QuizSubmission struct {
	Answers []int `json:"answers"`
}

// QuizOutcome is returned after a quiz submission.
type QuizOutcome struct {
	Result  QuizResult `json:"result"`
	Restart bool       `json:"restart"`
	Profile *Profile   `json:"profile,omitempty"`
}

// ============================================================
// Uploads
// ============================================================

// UploadedFile is what the storage layer returns after an upload.
type UploadedFile struct {
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// TrainingState is returned after a module completion: the saved progress,
// the profile and where the user goes next.
type TrainingState struct {
	Progress *TrainingProgress `json:"progress"`
	Profile  *Profile          `json:"profile"`
	Next     Route             `json:"next"`
}

// FactsFrom derives the router facts from the rows read for a profile.
func FactsFrom(app *Application, progress *TrainingProgress) RouteFacts {
	var f RouteFacts
	if app != nil {
		f.HasApplication = true
		f.ApplicationReview = app.ReviewStatus
	}
	if progress != nil {
		f.ModuleCommonDone = progress.ModuleCommonCompleted
		f.ModuleRoleDone = progress.ModuleRoleCompleted
		f.HasRecording = progress.TestCallURL != ""
	}
	return f
}
