package coretypes

// Role is the inferred ARIA role set, spec §3.
type Role string

const (
	RoleButton        Role = "button"
	RoleLink          Role = "link"
	RoleTextbox       Role = "textbox"
	RoleCombobox      Role = "combobox"
	RoleCheckbox      Role = "checkbox"
	RoleRadio         Role = "radio"
	RoleHeading       Role = "heading"
	RoleMain          Role = "main"
	RoleBanner        Role = "banner"
	RoleNavigation    Role = "navigation"
	RoleComplementary Role = "complementary"
	RoleContentinfo   Role = "contentinfo"
	RoleRegion        Role = "region"
	RoleSearch        Role = "search"
	RoleForm          Role = "form"
	RoleList          Role = "list"
	RoleListItem      Role = "listitem"
	RoleCode          Role = "code"
	RoleArticle       Role = "article"
	RoleMenuItem      Role = "menuitem"
	RoleTab           Role = "tab"
	RoleGeneric       Role = "generic"
)

// InteractiveRoles is the role set that qualifies an element for
// inclusion in interactive-mode snapshot output, spec §4.5.
var InteractiveRoles = map[Role]bool{
	RoleButton: true, RoleLink: true, RoleTextbox: true, RoleCombobox: true,
	RoleCheckbox: true, RoleRadio: true, RoleMenuItem: true, RoleTab: true,
}

// LandmarkRoles denotes the top-level semantic-region roles, glossary.
var LandmarkRoles = map[Role]bool{
	RoleMain: true, RoleBanner: true, RoleNavigation: true,
	RoleComplementary: true, RoleContentinfo: true, RoleRegion: true,
	RoleSearch: true, RoleForm: true,
}

// State is the set of boolean/flag attributes reported alongside role and
// name, spec §4.1.
type State struct {
	Disabled bool
	Required bool
	Checked  bool
	Selected bool
	Expanded bool
	HasExpanded bool // whether aria-expanded was present at all
}

// RoleInfo is the Role & Name Resolver's (C1) output, spec §4.1.
type RoleInfo struct {
	Role  Role
	Level int // heading level, 0 when not a heading
	Name  string
	State State
}
