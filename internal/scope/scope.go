package scope

import (
	"errors"

	"github.com/nholik/status-sentry/internal/statuspage"
)

// GlobalServicesLabel is the group label applied to allow-list selections.
const GlobalServicesLabel = "Global Services"

// ErrEmptySelection is returned when no configured scope resolves to any component.
var ErrEmptySelection = errors.New("scope selection is empty")

// Config declares which components are in scope: members of the named
// groups, components whose name is on the services allow-list, or both.
type Config struct {
	Groups   []string
	Services []string
}

// ScopedComponent is an in-scope component with its owning group label.
type ScopedComponent struct {
	Component  statuspage.Component
	GroupLabel string
}

// Selection is the resolved scope for one run. Components preserve API
// response order. MissingGroups lists configured group names that were
// not present in the response; a partial selection is still usable.
type Selection struct {
	Components    []ScopedComponent
	MissingGroups []string
}

// Resolve selects in-scope components from the full flat component list.
// It returns ErrEmptySelection when nothing resolves; missing group names
// alone do not fail the resolution as long as some scope remains.
func Resolve(components []statuspage.Component, cfg Config) (Selection, error) {
	labelByGroupID := map[string]string{}
	found := map[string]bool{}

	// Groups are components with the group flag set. On duplicate names
	// the first marker in response order wins; the API does not promise
	// unique names.
	for _, component := range components {
		if !component.IsGroup {
			continue
		}
		for _, name := range cfg.Groups {
			if component.Name == name && !found[name] {
				labelByGroupID[component.ID] = name
				found[name] = true
			}
		}
	}

	var missing []string
	for _, name := range cfg.Groups {
		if !found[name] {
			missing = append(missing, name)
		}
	}

	allowed := map[string]bool{}
	for _, name := range cfg.Services {
		allowed[name] = true
	}

	var selected []ScopedComponent
	for _, component := range components {
		if component.IsGroup {
			continue
		}
		if label, ok := labelByGroupID[component.GroupID]; ok {
			selected = append(selected, ScopedComponent{
				Component:  component,
				GroupLabel: label,
			})
			continue
		}
		if allowed[component.Name] {
			selected = append(selected, ScopedComponent{
				Component:  component,
				GroupLabel: GlobalServicesLabel,
			})
		}
	}

	selection := Selection{
		Components:    selected,
		MissingGroups: missing,
	}
	if len(selected) == 0 {
		return selection, ErrEmptySelection
	}
	return selection, nil
}
