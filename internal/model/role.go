package model

// Role is a membership role. Permission order: owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var roleRank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the permissions of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Operation names a permission-checked action on a circle.
type Operation string

const (
	OpViewCircle   Operation = "circle.view"
	OpUpdateCircle Operation = "circle.update"
	OpDeleteCircle Operation = "circle.delete"
	OpListMembers  Operation = "members.list"
	OpAddMember    Operation = "members.add"
	OpUpdateRole   Operation = "members.update_role"
	OpRemoveMember Operation = "members.remove"
	OpCreateInvite Operation = "invites.create"
	OpListInvites  Operation = "invites.list"
	OpRevokeInvite Operation = "invites.revoke"
)

// minRoleFor is the static permission matrix: the minimum role required
// for each operation.
var minRoleFor = map[Operation]Role{
	OpViewCircle:   RoleMember,
	OpUpdateCircle: RoleAdmin,
	OpDeleteCircle: RoleOwner,
	OpListMembers:  RoleMember,
	OpAddMember:    RoleAdmin,
	OpUpdateRole:   RoleOwner,
	OpRemoveMember: RoleAdmin,
	OpCreateInvite: RoleAdmin,
	OpListInvites:  RoleAdmin,
	OpRevokeInvite: RoleAdmin,
}

// Allowed reports whether a member with the given role may perform op.
// Unknown operations are never allowed.
func Allowed(role Role, op Operation) bool {
	min, ok := minRoleFor[op]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}
