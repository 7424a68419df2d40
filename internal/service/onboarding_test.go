package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var onboardingNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newOnboarding(db *fakeDB) *service.OnboardingService {
	return service.NewOnboardingService(db, db, db, db, fakeContent{},
		service.Buckets{CV: "cvs", Recordings: "recordings"},
		observability.NewMetrics(), zap.NewNop(), fixedClock(onboardingNow))
}

func newCandidate(db *fakeDB) *domain.Identity {
	p := domain.NewProfile("user-1", "ada@example.com")
	db.profiles[p.ID] = p
	cp := *p
	return &domain.Identity{UserID: p.ID, Email: p.Email, AccessToken: "tok", Profile: &cp}
}

func rightAnswers(bank domain.QuestionBank) []int {
	out := make([]int, len(bank.Questions))
	for i, q := range bank.Questions {
		out[i] = q.Correct
	}
	return out
}

func wrongAnswers(bank domain.QuestionBank) []int {
	out := make([]int, len(bank.Questions))
	for i, q := range bank.Questions {
		out[i] = (q.Correct + 1) % len(q.Options)
	}
	return out
}

func routeOf(t *testing.T, svc *service.OnboardingService, id *domain.Identity) domain.Route {
	t.Helper()
	d, err := svc.Route(context.Background(), id)
	require.NoError(t, err)
	return d.Route
}

var validApplication = &domain.ApplicationRequest{
	DesiredRole:       domain.RoleFixer,
	Experience:        "3 ans de prospection B2B",
	Availability:      "temps plein",
	Motivation:        "vendre des formations utiles",
	FrameworkAccepted: true,
}

func TestOnboarding_FullJourney(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)

	assert.Equal(t, domain.RouteApplication, routeOf(t, svc, id))

	app, err := svc.SubmitApplication(ctx, id, validApplication)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, app.ReviewStatus)
	assert.Equal(t, domain.RoleFixer, id.Profile.Role)
	assert.Equal(t, domain.RouteDashboard, routeOf(t, svc, id))

	_, err = svc.ReviewApplication(ctx, app.ID, &domain.ReviewRequest{Decision: domain.ReviewApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.RouteOnboarding, routeOf(t, svc, id))

	out, err := svc.AcceptFramework(ctx, id, &domain.QuizSubmission{Answers: wrongAnswers(domain.FrameworkQuiz)})
	require.NoError(t, err)
	assert.True(t, out.Restart)
	assert.Equal(t, domain.StatusNewUser, id.Profile.Status)

	out, err = svc.AcceptFramework(ctx, id, &domain.QuizSubmission{Answers: rightAnswers(domain.FrameworkQuiz)})
	require.NoError(t, err)
	assert.True(t, out.Result.Passed)
	assert.Equal(t, domain.StatusFrameworkAccepted, id.Profile.Status)
	require.NotNil(t, id.Profile.FrameworkAcceptedAt)
	assert.Equal(t, domain.RouteTrainingCommon, routeOf(t, svc, id))

	mod, err := svc.GetModule(ctx, id, domain.ModuleRole)
	require.NoError(t, err)
	assert.True(t, mod.Locked)
	assert.Empty(t, mod.HTML)

	_, err = svc.CompleteModule(ctx, id, domain.ModuleRole)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	state, err := svc.CompleteModule(ctx, id, domain.ModuleCommon)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTraining, state.Profile.Status)
	assert.Equal(t, domain.RouteTrainingRole, state.Next)

	mod, err = svc.GetModule(ctx, id, domain.ModuleRole)
	require.NoError(t, err)
	assert.False(t, mod.Locked)
	assert.Contains(t, mod.HTML, "role:fixer")

	state, err = svc.CompleteModule(ctx, id, domain.ModuleRole)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteValidationQuiz, state.Next)

	out, err = svc.SubmitValidationQuiz(ctx, id, &domain.QuizSubmission{Answers: rightAnswers(domain.ValidationQuiz)})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Result.Percentage)
	assert.Equal(t, domain.StatusPendingAudio, id.Profile.Status)
	assert.Equal(t, domain.RouteRecording, routeOf(t, svc, id))

	up, err := svc.UploadRecording(ctx, id, &domain.FileUpload{
		Name: "call.webm", ContentType: "audio/webm", Size: 4, Data: []byte("opus"),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1/test_call_1710496800000.webm", up.Path)
	assert.True(t, db.buckets["recordings"])
	assert.Equal(t, domain.RouteDashboard, routeOf(t, svc, id))

	pending, err := svc.ListPendingRecordings(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	p, err := svc.ValidateRecording(ctx, id.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, p.Status)
	id.Profile = p
	assert.Equal(t, domain.RouteActivation, routeOf(t, svc, id))

	p, err = svc.Activate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.NotNil(t, p.ActivatedAt)
	assert.Equal(t, domain.RouteFixerDashboard, routeOf(t, svc, id))
}

func TestOnboarding_SubmitApplicationOnce(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)

	_, err := svc.SubmitApplication(context.Background(), id, validApplication)
	require.NoError(t, err)
	_, err = svc.SubmitApplication(context.Background(), id, validApplication)

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestOnboarding_FrameworkRequiresApproval(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)
	_, err := svc.SubmitApplication(context.Background(), id, validApplication)
	require.NoError(t, err)

	_, err = svc.AcceptFramework(context.Background(), id, &domain.QuizSubmission{Answers: rightAnswers(domain.FrameworkQuiz)})

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestOnboarding_UploadCV(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)
	cv := &domain.FileUpload{Name: "cv.PDF", ContentType: "application/pdf", Size: 3, Data: []byte("pdf")}

	_, err := svc.UploadCV(context.Background(), id, cv)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	app, err := svc.SubmitApplication(context.Background(), id, validApplication)
	require.NoError(t, err)
	up, err := svc.UploadCV(context.Background(), id, cv)
	require.NoError(t, err)

	assert.Equal(t, "user-1/cv_1710496800000.pdf", up.Path)
	assert.Equal(t, up.PublicURL, db.applications[app.ID].CVURL)
}

func TestOnboarding_UploadCVRejectsType(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)

	_, err := svc.UploadCV(context.Background(), id, &domain.FileUpload{Name: "cv.png", ContentType: "image/png", Size: 3, Data: []byte("png")})

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestOnboarding_RouteTreatsReadErrorsAsNoData(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)
	_, err := svc.SubmitApplication(context.Background(), id, validApplication)
	require.NoError(t, err)

	db.failReads = errBoom
	d, err := svc.Route(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteApplication, d.Route)
	assert.False(t, d.Facts.HasApplication)
}

func TestOnboarding_AdminRouteSkipsFacts(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)
	id.Profile.IsAdmin = true
	db.failReads = errBoom

	assert.Equal(t, domain.RouteAdminDashboard, routeOf(t, svc, id))
}

func TestOnboarding_RejectIsTerminal(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)

	p, err := svc.RejectProfile(context.Background(), id.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, p.Status)

	_, err = svc.RejectProfile(context.Background(), id.UserID)
	var conflict *domain.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestOnboarding_ActivateIsNoopBeforeValidation(t *testing.T) {
	db := newFakeDB()
	svc := newOnboarding(db)
	id := newCandidate(db)

	p, err := svc.Activate(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusNewUser, p.Status)
}

func TestOnboarding_ReviewRejectsUnknownDecision(t *testing.T) {
	svc := newOnboarding(newFakeDB())

	_, err := svc.ReviewApplication(context.Background(), "app-1", &domain.ReviewRequest{Decision: domain.ReviewPending})

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}
