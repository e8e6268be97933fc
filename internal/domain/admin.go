package domain

// AdminRole is carried in admin tokens and decides which actions are allowed.
type AdminRole string

const (
	RoleOwner   AdminRole = "owner"
	RoleSupport AdminRole = "support"
)

type Permission string

const (
	PermStatsRead         Permission = "stats:read"
	PermWithdrawalsManage Permission = "withdrawals:manage"
	PermAccountsManage    Permission = "accounts:manage"
)

var rolePermissions = map[AdminRole][]Permission{
	RoleOwner:   {PermStatsRead, PermWithdrawalsManage, PermAccountsManage},
	RoleSupport: {PermStatsRead, PermWithdrawalsManage},
}

// Can reports whether role grants perm. Unknown roles grant nothing.
func (r AdminRole) Can(perm Permission) bool {
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}

// AdminRoster maps Telegram ids to roles.
type AdminRoster map[int64]AdminRole

// Role returns the role of tgID and whether it is an admin at all.
func (r AdminRoster) Role(tgID int64) (AdminRole, bool) {
	role, ok := r[tgID]
	return role, ok
}

// IDs lists every admin id, used for notifications.
func (r AdminRoster) IDs() []int64 {
	ids := make([]int64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}
