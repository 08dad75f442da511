package auth

import "github.com/producehub/producehub-backend/pkg/enums"

const (
	LandingAdminDashboard = "/admin/dashboard"
	LandingStoreDashboard = "/store/dashboard"
	LandingStorePending   = "/store/pending-approval"
	LandingStoreRejected  = "/store/rejected"
	LandingLogin          = "/login"
)

// Landing returns the client route a principal belongs on. Unknown
// combinations fall back to the login page.
func Landing(role enums.Role, status *enums.ApprovalStatus) string {
	switch role {
	case enums.RoleAdmin:
		return LandingAdminDashboard
	case enums.RoleStore:
		if status == nil {
			return LandingLogin
		}
		switch *status {
		case enums.ApprovalStatusApproved:
			return LandingStoreDashboard
		case enums.ApprovalStatusPending:
			return LandingStorePending
		case enums.ApprovalStatusRejected:
			return LandingStoreRejected
		}
	}
	return LandingLogin
}
