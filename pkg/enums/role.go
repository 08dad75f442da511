package enums

// Role identifies the kind of principal carried by an access token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStore Role = "store"
)

var validRoles = []Role{RoleAdmin, RoleStore}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return contains(r, validRoles) }

func ParseRole(value string) (Role, error) { return parse("role", value, validRoles) }

// MemberRole is the staff role of an internal member account.
type MemberRole string

const (
	MemberRoleAdmin      MemberRole = "admin"
	MemberRoleManager    MemberRole = "manager"
	MemberRoleDispatcher MemberRole = "dispatcher"
	MemberRoleAccountant MemberRole = "accountant"
	MemberRoleStaff      MemberRole = "staff"
)

var validMemberRoles = []MemberRole{
	MemberRoleAdmin,
	MemberRoleManager,
	MemberRoleDispatcher,
	MemberRoleAccountant,
	MemberRoleStaff,
}

func (m MemberRole) String() string { return string(m) }

func (m MemberRole) IsValid() bool { return contains(m, validMemberRoles) }

func ParseMemberRole(value string) (MemberRole, error) {
	return parse("member role", value, validMemberRoles)
}

// MemberStatus gates whether a member may sign in.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusSuspended MemberStatus = "suspended"
)

var validMemberStatuses = []MemberStatus{MemberStatusActive, MemberStatusInactive, MemberStatusSuspended}

func (m MemberStatus) String() string { return string(m) }

func (m MemberStatus) IsValid() bool { return contains(m, validMemberStatuses) }

// CanLogin reports whether the status permits authentication.
func (m MemberStatus) CanLogin() bool { return m == MemberStatusActive }

func ParseMemberStatus(value string) (MemberStatus, error) {
	return parse("member status", value, validMemberStatuses)
}
