package moderation

// Role is the canonical moderation role for a user within a scope. Localized
// or legacy spellings are translated to canonical form at the presentation
// boundary via CanonicalRole; core logic only ever compares canonical roles.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleHelper    Role = "helper"
	RoleUser      Role = "user"
)

var roleRanks = map[Role]int{
	RoleOwner:     100,
	RoleAdmin:     80,
	RoleModerator: 60,
	RoleHelper:    40,
	RoleUser:      0,
}

// Rank returns the numeric position of the role in the hierarchy. Unknown
// roles rank as plain users.
func (r Role) Rank() int {
	return roleRanks[r]
}

var roleSpellings = map[string]Role{
	"owner":     RoleOwner,
	"владелец":  RoleOwner,
	"admin":     RoleAdmin,
	"админ":     RoleAdmin,
	"moderator": RoleModerator,
	"moder":     RoleModerator,
	"модер":     RoleModerator,
	"helper":    RoleHelper,
	"помощник":  RoleHelper,
	"user":      RoleUser,
}

// CanonicalRole maps any stored or user-supplied role spelling to its
// canonical form. Unknown spellings resolve to RoleUser.
func CanonicalRole(s string) Role {
	if r, ok := roleSpellings[s]; ok {
		return r
	}
	return RoleUser
}

// rolePerms is the fixed capability table: which canonical action keys each
// role may invoke. The dispatcher resolves textual aliases to these keys
// before consulting the table.
var rolePerms = map[Role][]string{
	RoleOwner: {
		"warn", "unwarn", "warns", "mute", "unmute", "kick", "skick", "ban", "unban",
		"sban", "sunban", "blacklist", "add", "role", "removerole", "allremoverole",
		"wipe", "broadcast", "ss", "admins", "setowner", "setadmin", "setmoder",
		"sethelper", "allowner", "alladmin", "allmoder", "allhelper", "report",
		"backup", "info", "help", "clear", "exportlogs",
	},
	RoleAdmin: {
		"warn", "unwarn", "warns", "mute", "unmute", "kick", "skick", "ban", "unban",
		"add", "role", "removerole", "allremoverole", "broadcast", "ss", "setmoder",
		"sethelper", "allmoder", "allhelper", "report", "info", "help", "clear",
	},
	RoleModerator: {
		"warn", "unwarn", "warns", "mute", "unmute", "kick", "report", "info", "help", "clear",
	},
	RoleHelper: {
		"warn", "warns", "mute", "add", "ss", "report", "info", "help",
	},
	RoleUser: {
		"info", "report", "help", "warns",
	},
}

// Can reports whether the role may invoke the given canonical action key.
// Roles missing from the table get the plain-user capability set.
func (r Role) Can(action string) bool {
	set, ok := rolePerms[r]
	if !ok {
		set = rolePerms[RoleUser]
	}
	for _, a := range set {
		if a == action {
			return true
		}
	}
	return false
}
