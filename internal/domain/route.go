package domain

// Route is the page a user is allowed to see next.
type Route string

const (
	RouteApplication     Route = "application"
	RouteDashboard       Route = "dashboard"
	RouteOnboarding      Route = "onboarding"
	RouteTrainingCommon  Route = "training_common"
	RouteTrainingRole    Route = "training_role"
	RouteValidationQuiz  Route = "validation_quiz"
	RouteRecording       Route = "recording"
	RouteActivation      Route = "activation"
	RouteFixerDashboard  Route = "fixer_dashboard"
	RouteCloserDashboard Route = "closer_dashboard"
	RouteAdminDashboard  Route = "admin_dashboard"
	RouteRejected        Route = "rejected"
)

// RouteFacts are the rows, besides the profile, that the router looks at.
// A failed read leaves the matching fact at its zero value.
type RouteFacts struct {
	HasApplication    bool         `json:"has_application"`
	ApplicationReview ReviewStatus `json:"application_review,omitempty"`
	ModuleCommonDone  bool         `json:"module_common_done"`
	ModuleRoleDone    bool         `json:"module_role_done"`
	HasRecording      bool         `json:"has_recording"`
}

// RouteDecision is returned by GET /v1/me/route.
type RouteDecision struct {
	Route  Route      `json:"route"`
	Status Status     `json:"status,omitempty"`
	Role   Role       `json:"role,omitempty"`
	Facts  RouteFacts `json:"facts"`
}

// ResolveRoute decides where a user belongs from the profile and facts.
// It is pure: the same inputs always yield the same route.
func ResolveRoute(p *Profile, f RouteFacts) Route {
	if p == nil {
		return RouteApplication
	}
	if p.IsAdmin {
		return RouteAdminDashboard
	}

	switch p.Status {
	case StatusRejected:
		return RouteRejected

	case StatusFrameworkAccepted:
		return RouteTrainingCommon

	case StatusInTraining:
		switch {
		case !f.ModuleCommonDone:
			return RouteTrainingCommon
		case !f.ModuleRoleDone:
			return RouteTrainingRole
		default:
			return RouteValidationQuiz
		}

	case StatusPendingAudio:
		if !f.HasRecording {
			return RouteRecording
		}
		return RouteDashboard

	case StatusValidated:
		return RouteActivation

	case StatusActive:
		switch p.Role {
		case RoleFixer:
			return RouteFixerDashboard
		case RoleCloser:
			return RouteCloserDashboard
		default:
			return RouteApplication
		}
	}

	// new_user and anything unrecognised
	if !f.HasApplication {
		return RouteApplication
	}
	if f.ApplicationReview == ReviewApproved {
		return RouteOnboarding
	}
	return RouteDashboard
}
