package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"
)

// --- Fakes ---

// applyPatch merges fields into v through its JSON representation, the
// way PostgREST applies a PATCH body to a row.
func applyPatch[T any](v *T, fields map[string]any) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	row := map[string]any{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	for k, val := range fields {
		row[k] = val
	}
	raw, err = json.Marshal(row)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fakeDB implements every store port in memory.
type fakeDB struct {
	mu sync.Mutex

	profiles     map[string]*domain.Profile
	applications map[string]*domain.Application
	progress     map[string]*domain.TrainingProgress
	fixerKPIs    []domain.FixerKPI
	closerKPIs   []domain.CloserKPI
	dossiers     map[string]*domain.Dossier
	companies    []*domain.Company
	contacts     []domain.Contact
	phones       []domain.Phone
	feedback     map[string]*domain.Feedback
	sent         []*domain.SentEmail
	received     []*domain.ReceivedEmail
	uploads      map[string][]byte
	buckets      map[string]bool

	companyPatches int
	failReads      error
	failInsert     error
	failAdmins     error
	failLatest     error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		profiles:     map[string]*domain.Profile{},
		applications: map[string]*domain.Application{},
		progress:     map[string]*domain.TrainingProgress{},
		dossiers:     map[string]*domain.Dossier{},
		feedback:     map[string]*domain.Feedback{},
		uploads:      map[string][]byte{},
		buckets:      map[string]bool{},
	}
}

// ProfileStore

func (f *fakeDB) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.ID] = &cp
	return p, nil
}

func (f *fakeDB) UpdateProfile(_ context.Context, id string, fields map[string]any) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	updated, err := applyPatch(p, fields)
	if err != nil {
		return nil, err
	}
	f.profiles[id] = updated
	cp := *updated
	return &cp, nil
}

func (f *fakeDB) ListProfilesByRole(_ context.Context, role domain.Role, status domain.Status) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range f.profiles {
		if p.Role == role && !p.IsAdmin && (status == "" || p.Status == status) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeDB) ListAdmins(_ context.Context) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdmins != nil {
		return nil, f.failAdmins
	}
	out := []domain.Profile{}
	for _, p := range f.profiles {
		if p.IsAdmin {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ApplicationStore

func (f *fakeDB) GetApplicationByProfile(_ context.Context, profileID string) (*domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads != nil {
		return nil, f.failReads
	}
	for _, a := range f.applications {
		if a.ProfileID == profileID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetApplication(_ context.Context, id string) (*domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "application", ID: id}
	}
	cp := *a
	return &cp, nil
}

func (f *fakeDB) CreateApplication(_ context.Context, a *domain.Application) (*domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.applications[a.ID] = &cp
	return a, nil
}

func (f *fakeDB) UpdateApplication(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "application", ID: id}
	}
	updated, err := applyPatch(a, fields)
	if err != nil {
		return err
	}
	f.applications[id] = updated
	return nil
}

func (f *fakeDB) ListApplications(_ context.Context, review domain.ReviewStatus) ([]domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Application{}
	for _, a := range f.applications {
		if review == "" || a.ReviewStatus == review {
			out = append(out, *a)
		}
	}
	return out, nil
}

// TrainingStore

func (f *fakeDB) GetProgress(_ context.Context, profileID string) (*domain.TrainingProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads != nil {
		return nil, f.failReads
	}
	if p, ok := f.progress[profileID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) CreateProgress(_ context.Context, p *domain.TrainingProgress) (*domain.TrainingProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.progress[p.ProfileID] = &cp
	return p, nil
}

func (f *fakeDB) UpdateProgress(_ context.Context, profileID string, fields map[string]any) (*domain.TrainingProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[profileID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "training progress", ID: profileID}
	}
	updated, err := applyPatch(p, fields)
	if err != nil {
		return nil, err
	}
	f.progress[profileID] = updated
	cp := *updated
	return &cp, nil
}

func (f *fakeDB) ListPendingRecordings(_ context.Context) ([]domain.TrainingProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.TrainingProgress{}
	for _, p := range f.progress {
		if p.TestCallURL != "" && !p.TestCallValidated {
			out = append(out, *p)
		}
	}
	return out, nil
}

// KPIStore

func (f *fakeDB) InsertFixerKPI(_ context.Context, row *domain.FixerKPI) (*domain.FixerKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixerKPIs = append(f.fixerKPIs, *row)
	return row, nil
}

func (f *fakeDB) InsertCloserKPI(_ context.Context, row *domain.CloserKPI) (*domain.CloserKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closerKPIs = append(f.closerKPIs, *row)
	return row, nil
}

func inRange(date, from, to string) bool {
	return date >= from && date <= to
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeDB) ListFixerKPIs(_ context.Context, ids []string, from, to string) ([]domain.FixerKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.FixerKPI{}
	for _, r := range f.fixerKPIs {
		if contains(ids, r.ProfileID) && inRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDB) ListCloserKPIs(_ context.Context, ids []string, from, to string) ([]domain.CloserKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.CloserKPI{}
	for _, r := range f.closerKPIs {
		if contains(ids, r.ProfileID) && inRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

// DossierStore

func (f *fakeDB) ListDossiers(_ context.Context) ([]domain.Dossier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Dossier{}
	for _, d := range f.dossiers {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDB) GetDossier(_ context.Context, id string) (*domain.Dossier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dossiers[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "dossier", ID: id}
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDB) UpdateDossier(_ context.Context, id string, fields map[string]any) (*domain.Dossier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dossiers[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "dossier", ID: id}
	}
	updated, err := applyPatch(d, fields)
	if err != nil {
		return nil, err
	}
	f.dossiers[id] = updated
	cp := *updated
	return &cp, nil
}

// CRMStore

func (f *fakeDB) ListCompanies(_ context.Context, filter domain.DispatchFilter) ([]domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Company{}
	for _, c := range f.companies {
		switch filter {
		case domain.FilterAssigned:
			if c.DispatchStatus != domain.DispatchAssigned {
				continue
			}
		case domain.FilterUnassigned:
			if c.DispatchStatus == domain.DispatchAssigned {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeDB) ListContacts(_ context.Context, companyIDs []string) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Contact{}
	for _, c := range f.contacts {
		if contains(companyIDs, c.CompanyID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDB) ListPhones(_ context.Context, contactIDs []string) ([]domain.Phone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Phone{}
	for _, p := range f.phones {
		if contains(contactIDs, p.ContactID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDB) FindContactByEmail(_ context.Context, email string) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if strings.EqualFold(c.Email, email) {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) UpdateCompanies(_ context.Context, ids []string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.companyPatches++
	for i, c := range f.companies {
		if !contains(ids, c.ID) {
			continue
		}
		updated, err := applyPatch(c, fields)
		if err != nil {
			return err
		}
		f.companies[i] = updated
	}
	return nil
}

// FeedbackStore

func (f *fakeDB) CreateFeedback(_ context.Context, fb *domain.Feedback) (*domain.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *fb
	f.feedback[fb.ID] = &cp
	return fb, nil
}

func (f *fakeDB) ListFeedback(_ context.Context, status domain.FeedbackStatus) ([]domain.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Feedback{}
	for _, fb := range f.feedback {
		if status == "" || fb.Status == status {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateFeedback(_ context.Context, id string, fields map[string]any) (*domain.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.feedback[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "feedback", ID: id}
	}
	updated, err := applyPatch(fb, fields)
	if err != nil {
		return nil, err
	}
	f.feedback[id] = updated
	return updated, nil
}

// EmailStore

func (f *fakeDB) InsertSentEmail(_ context.Context, e *domain.SentEmail) (*domain.SentEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return nil, f.failInsert
	}
	cp := *e
	f.sent = append(f.sent, &cp)
	return e, nil
}

func (f *fakeDB) UpdateSentEmail(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.sent {
		if e.ID != id {
			continue
		}
		updated, err := applyPatch(e, fields)
		if err != nil {
			return err
		}
		f.sent[i] = updated
		return nil
	}
	return &domain.ErrNotFound{Resource: "sent email", ID: id}
}

func (f *fakeDB) GetSentEmail(_ context.Context, id string) (*domain.SentEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.sent {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) LatestSentTo(_ context.Context, to string) (*domain.SentEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLatest != nil {
		return nil, f.failLatest
	}
	for i := len(f.sent) - 1; i >= 0; i-- {
		if strings.EqualFold(f.sent[i].ToEmail, to) {
			cp := *f.sent[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) InsertReceivedEmail(_ context.Context, e *domain.ReceivedEmail) (*domain.ReceivedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return nil, f.failInsert
	}
	cp := *e
	f.received = append(f.received, &cp)
	return e, nil
}

func (f *fakeDB) ListSentEmails(_ context.Context, limit int) ([]domain.SentEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.SentEmail{}
	for i := len(f.sent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.sent[i])
	}
	return out, nil
}

func (f *fakeDB) ListReceivedEmails(_ context.Context, limit int) ([]domain.ReceivedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ReceivedEmail{}
	for i := len(f.received) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.received[i])
	}
	return out, nil
}

// FileStorage

func (f *fakeDB) EnsureBucket(_ context.Context, bucket string, _ bool, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *fakeDB) Upload(_ context.Context, bucket, path, _ string, data []byte) (*domain.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[bucket+"/"+path] = data
	return &domain.UploadedFile{
		Bucket:    bucket,
		Path:      path,
		PublicURL: "https://storage.test/" + bucket + "/" + path,
	}, nil
}

// fakeAuth implements port.AuthProvider.
type fakeAuth struct {
	users    map[string]string // email -> password
	tokens   map[string]domain.AuthUser
	getCalls int
	signOuts []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{}, tokens: map[string]domain.AuthUser{}}
}

func (a *fakeAuth) session(email string) *domain.Session {
	u := domain.AuthUser{ID: "uid-" + email, Email: email}
	token := "tok-" + email
	a.tokens[token] = u
	return &domain.Session{AccessToken: token, RefreshToken: "ref-" + email, ExpiresIn: 3600, TokenType: "bearer", User: u}
}

func (a *fakeAuth) SignUp(_ context.Context, email, password string) (*domain.AuthUser, *domain.Session, error) {
	if _, ok := a.users[email]; ok {
		return nil, nil, &domain.ErrConflict{Message: "User already registered"}
	}
	a.users[email] = password
	s := a.session(email)
	return &s.User, s, nil
}

func (a *fakeAuth) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	if pw, ok := a.users[email]; !ok || pw != password {
		return nil, &domain.ErrUnauthorized{Message: "Invalid login credentials"}
	}
	return a.session(email), nil
}

func (a *fakeAuth) Refresh(_ context.Context, token string) (*domain.Session, error) {
	email := strings.TrimPrefix(token, "ref-")
	if _, ok := a.users[email]; !ok {
		return nil, &domain.ErrUnauthorized{Message: "Invalid Refresh Token"}
	}
	return a.session(email), nil
}

func (a *fakeAuth) SignOut(_ context.Context, token string) error {
	a.signOuts = append(a.signOuts, token)
	delete(a.tokens, token)
	return nil
}

func (a *fakeAuth) ResetPassword(_ context.Context, _, _ string) error { return nil }

func (a *fakeAuth) UpdatePassword(_ context.Context, token, password string) error {
	u, ok := a.tokens[token]
	if !ok {
		return &domain.ErrUnauthorized{Message: "invalid token"}
	}
	a.users[u.Email] = password
	return nil
}

func (a *fakeAuth) GetUser(_ context.Context, token string) (*domain.AuthUser, error) {
	a.getCalls++
	u, ok := a.tokens[token]
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "invalid JWT"}
	}
	return &u, nil
}

// fakeSender implements port.EmailSender.
type fakeSender struct {
	sent []*port.OutboundMessage
	err  error

	// onSend runs before the provider answers, e.g. to cancel the caller.
	onSend func()
}

func (s *fakeSender) Send(_ context.Context, msg *port.OutboundMessage) (string, error) {
	if s.onSend != nil {
		s.onSend()
	}
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "re_123", nil
}

// fakeContent implements port.ContentProvider.
type fakeContent struct{}

func (fakeContent) Module(module domain.TrainingModule, role domain.Role) (string, string, error) {
	if module == domain.ModuleRole && !role.Valid() {
		return "", "", &domain.ErrValidation{Field: "role", Message: "required"}
	}
	return "Module " + string(module), "<h1>" + string(module) + ":" + string(role) + "</h1>", nil
}

// fakeProber implements port.LLMProber.
type fakeProber struct {
	model string
	err   error
	calls int
}

func (p *fakeProber) Probe(_ context.Context) (string, time.Duration, error) {
	p.calls++
	if p.err != nil {
		return "", 0, p.err
	}
	return p.model, 12 * time.Millisecond, nil
}

// fakePinger implements port.HealthChecker.
type fakePinger struct{ err error }

func (p fakePinger) Ping(_ context.Context) error { return p.err }

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
