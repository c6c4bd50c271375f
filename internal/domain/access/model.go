package access

// Role se deriva; nunca se persiste.
// @Enum Admin, User, Hospital, Shelter
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleUser     Role = "User"
	RoleHospital Role = "Hospital"
	RoleShelter  Role = "Shelter"
)

type Action string

const (
	ActionCreateInstitution  Action = "institution:create"
	ActionListUsers          Action = "users:list"
	ActionUpdateRescueStatus Action = "rescue:update_status"
	ActionAppendMedical      Action = "medical:append"
)

var permissions = map[Role][]Action{
	RoleAdmin: {
		ActionCreateInstitution,
		ActionListUsers,
		ActionUpdateRescueStatus,
	},
	RoleHospital: {
		ActionUpdateRescueStatus,
		ActionAppendMedical,
	},
	RoleShelter: {
		ActionUpdateRescueStatus,
	},
	RoleUser: {},
}

// Allows valida si el rol incluye la acción.
func Allows(role Role, action Action) bool {
	for _, a := range permissions[role] {
		if a == action {
			return true
		}
	}
	return false
}
