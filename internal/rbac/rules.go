package rbac

const (
	PermBankRead      = "bank:read"
	PermBankWrite     = "bank:write"
	PermBankReload    = "bank:reload"
	PermSessionsAdmin = "sessions:admin"
	PermEventsRead    = "events:read"
)

var RolePermissions = map[string][]string{
	"viewer": {
		PermBankRead,
		PermEventsRead,
	},
	"author": {
		"bank:*",
	},
	"operator": {
		"*",
	},
}
