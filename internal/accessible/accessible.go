// Package accessible implements the Role & Name Resolver (C1), spec §4.1.
package accessible

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
)

var landmarkTags = map[string]coretypes.Role{
	"main":   coretypes.RoleMain,
	"nav":    coretypes.RoleNavigation,
	"header": coretypes.RoleBanner,
	"aside":  coretypes.RoleComplementary,
	"footer": coretypes.RoleContentinfo,
	"form":   coretypes.RoleForm,
}

var inputTypeRoles = map[string]coretypes.Role{
	"checkbox": coretypes.RoleCheckbox,
	"radio":    coretypes.RoleRadio,
	"submit":   coretypes.RoleButton,
	"button":   coretypes.RoleButton,
	"reset":    coretypes.RoleButton,
	"image":    coretypes.RoleButton,
}

// Resolve computes the RoleInfo for el per spec §4.1: explicit role
// attribute wins, otherwise a tag-to-role mapping; name resolved by
// priority chain; state flags read from IDL-equivalent attributes.
func Resolve(el dom.Element) coretypes.RoleInfo {
	role, level := resolveRole(el)
	name := resolveName(el)
	return coretypes.RoleInfo{
		Role:  role,
		Level: level,
		Name:  name,
		State: resolveState(el),
	}
}

func resolveRole(el dom.Element) (coretypes.Role, int) {
	if explicit, ok := el.Attr("role"); ok && strings.TrimSpace(explicit) != "" {
		return coretypes.Role(strings.ToLower(strings.TrimSpace(explicit))), headingLevel(el)
	}

	tag := strings.ToLower(el.TagName())
	switch tag {
	case "button":
		return coretypes.RoleButton, 0
	case "a":
		if _, ok := el.Attr("href"); ok {
			return coretypes.RoleLink, 0
		}
		return coretypes.RoleGeneric, 0
	case "select":
		return coretypes.RoleCombobox, 0
	case "textarea":
		return coretypes.RoleTextbox, 0
	case "input":
		typ, _ := el.Attr("type")
		if r, ok := inputTypeRoles[strings.ToLower(typ)]; ok {
			return r, 0
		}
		return coretypes.RoleTextbox, 0
	case "li":
		return coretypes.RoleListItem, 0
	case "ul", "ol":
		return coretypes.RoleList, 0
	case "article":
		return coretypes.RoleArticle, 0
	case "pre", "code":
		return coretypes.RoleCode, 0
	case "section":
		if hasSemanticIdentity(el) {
			return coretypes.RoleRegion, 0
		}
		return coretypes.RoleGeneric, 0
	case "h1", "h2", "h3", "h4", "h5", "h6":
		n, _ := strconv.Atoi(tag[1:])
		return coretypes.RoleHeading, n
	}
	if landmark, ok := landmarkTags[tag]; ok {
		return landmark, 0
	}
	return coretypes.RoleGeneric, 0
}

func headingLevel(el dom.Element) int {
	tag := strings.ToLower(el.TagName())
	if len(tag) == 2 && tag[0] == 'h' {
		if n, err := strconv.Atoi(tag[1:]); err == nil {
			return n
		}
	}
	return 0
}

// hasSemanticIdentity reports whether a <section> carries an id or class
// that looks meaningful, which promotes it to the region role.
func hasSemanticIdentity(el dom.Element) bool {
	if el.ID() != "" {
		return true
	}
	return len(el.ClassList()) > 0
}

// resolveName implements the accessible-name priority chain, spec §3.
func resolveName(el dom.Element) string {
	if labelledBy, ok := el.Attr("aria-labelledby"); ok {
		if name := dereferenceLabelledBy(el, labelledBy); name != "" {
			return name
		}
	}
	if label, ok := el.Attr("aria-label"); ok {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			return trimmed
		}
	}
	if label := associatedLabelText(el); label != "" {
		return label
	}
	if text := strings.TrimSpace(el.InnerText()); text != "" {
		return text
	}
	if isInputButton(el) {
		if v := strings.TrimSpace(el.Value()); v != "" {
			return v
		}
	}
	if placeholder, ok := el.Attr("placeholder"); ok {
		if trimmed := strings.TrimSpace(placeholder); trimmed != "" {
			return trimmed
		}
	}
	if alt, ok := el.Attr("alt"); ok {
		if trimmed := strings.TrimSpace(alt); trimmed != "" {
			return trimmed
		}
	}
	if title, ok := el.Attr("title"); ok {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func isInputButton(el dom.Element) bool {
	if strings.ToLower(el.TagName()) != "input" {
		return false
	}
	typ, _ := el.Attr("type")
	return slices.Contains([]string{"submit", "button", "reset"}, strings.ToLower(typ))
}

// dereferenceLabelledBy resolves a whitespace-separated list of element
// ids against el's owning document and whitespace-joins their text.
func dereferenceLabelledBy(el dom.Element, idList string) string {
	ids := strings.Fields(idList)
	if len(ids) == 0 {
		return ""
	}
	root := el
	for {
		parent, ok := root.Parent()
		if !ok {
			break
		}
		root = parent
	}
	var parts []string
	var find func(dom.Element)
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	remaining := len(idSet)
	find = func(node dom.Element) {
		if remaining == 0 {
			return
		}
		if idSet[node.ID()] {
			parts = append(parts, strings.TrimSpace(node.InnerText()))
			delete(idSet, node.ID())
			remaining--
		}
		for _, c := range node.Children() {
			if remaining == 0 {
				return
			}
			find(c)
		}
	}
	find(root)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// associatedLabelText finds a <label for=id> or ancestor <label> wrapping
// el, spec §3.
func associatedLabelText(el dom.Element) string {
	id := el.ID()
	if id != "" {
		root := el
		for {
			parent, ok := root.Parent()
			if !ok {
				break
			}
			root = parent
		}
		var found string
		var search func(dom.Element)
		search = func(node dom.Element) {
			if found != "" {
				return
			}
			if strings.ToLower(node.TagName()) == "label" {
				if forAttr, ok := node.Attr("for"); ok && forAttr == id {
					found = strings.TrimSpace(node.InnerText())
					return
				}
			}
			for _, c := range node.Children() {
				search(c)
				if found != "" {
					return
				}
			}
		}
		search(root)
		if found != "" {
			return found
		}
	}
	ancestor, ok := el.Parent()
	for ok {
		if strings.ToLower(ancestor.TagName()) == "label" {
			return strings.TrimSpace(ancestor.InnerText())
		}
		ancestor, ok = ancestor.Parent()
	}
	return ""
}

func resolveState(el dom.Element) coretypes.State {
	st := coretypes.State{
		Disabled: el.Disabled(),
		Checked:  el.Checked(),
		Selected: el.Selected(),
	}
	if req, ok := el.Attr("required"); ok {
		st.Required = req != "false"
	}
	if exp, ok := el.Attr("aria-expanded"); ok {
		st.HasExpanded = true
		st.Expanded = strings.EqualFold(exp, "true")
	}
	return st
}

// IsInteractive reports whether role qualifies for interactive-mode
// inclusion, spec §4.5.
func IsInteractive(role coretypes.Role, el dom.Element) bool {
	if coretypes.InteractiveRoles[role] {
		return true
	}
	if explicit, ok := el.Attr("role"); ok && strings.TrimSpace(explicit) != "" {
		return true
	}
	if _, ok := el.Attr("tabindex"); ok {
		return true
	}
	return false
}
