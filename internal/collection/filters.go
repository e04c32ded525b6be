// Package collection holds the pure question-selection algorithms used
// by the quiz creation workflow: override resolution over the
// theme/subtheme/group hierarchy, deduplicating accumulation, and
// uniform down-sampling. Nothing here touches a store.
package collection

// Selection is the set of taxonomy nodes a request filtered on. Empty
// slices mean "no filter at that level".
type Selection struct {
	Themes    []string
	Subthemes []string
	Groups    []string
}

// Empty reports whether no node is selected at any level.
func (s Selection) Empty() bool {
	return len(s.Themes) == 0 && len(s.Subthemes) == 0 && len(s.Groups) == 0
}

// AncestryMaps resolve node ancestry without store lookups. Callers
// precompute them from the taxonomy.
type AncestryMaps struct {
	GroupToSubtheme map[string]string
	SubthemeToTheme map[string]string
}

// Overrides records which broader nodes are suppressed by a narrower
// selection: a selected group suppresses its subtheme and theme, a
// selected subtheme suppresses its theme.
type Overrides struct {
	Subthemes map[string]bool
	Themes    map[string]bool
}

// ResolveOverrides computes the suppressed ancestors for a selection.
func ResolveOverrides(sel Selection, maps AncestryMaps) Overrides {
	ov := Overrides{
		Subthemes: make(map[string]bool),
		Themes:    make(map[string]bool),
	}
	for _, g := range sel.Groups {
		if s, ok := maps.GroupToSubtheme[g]; ok {
			ov.Subthemes[s] = true
		}
	}
	for _, s := range sel.Subthemes {
		if t, ok := maps.SubthemeToTheme[s]; ok {
			ov.Themes[t] = true
		}
	}
	for s := range ov.Subthemes {
		if t, ok := maps.SubthemeToTheme[s]; ok {
			ov.Themes[t] = true
		}
	}
	return ov
}

// Matches reports whether a question with the given taxonomy refs
// matches the selection under the override rule. Branches are checked
// narrowest first and the first match wins, so a question never
// qualifies twice.
func Matches(themeID, subthemeID, groupID string, sel Selection, ov Overrides) bool {
	if groupID != "" && contains(sel.Groups, groupID) {
		return true
	}
	if subthemeID != "" && contains(sel.Subthemes, subthemeID) && !ov.Subthemes[subthemeID] {
		return true
	}
	if themeID != "" && contains(sel.Themes, themeID) && !ov.Themes[themeID] {
		return true
	}
	return false
}

// Plan levels, narrowest first.
const (
	LevelGroup    = "group"
	LevelSubtheme = "subtheme"
	LevelTheme    = "theme"
)

// PlanEntry is one node scheduled for per-node collection.
type PlanEntry struct {
	Level string
	ID    string
}

// BuildPlan lists the surviving nodes to enumerate: every selected
// group, selected subthemes that no selected group overrides, and
// selected themes that nothing narrower overrides. Under the override
// rule the surviving nodes cover disjoint question sets.
func BuildPlan(sel Selection, maps AncestryMaps) []PlanEntry {
	ov := ResolveOverrides(sel, maps)

	plan := make([]PlanEntry, 0, len(sel.Groups)+len(sel.Subthemes)+len(sel.Themes))
	for _, g := range sel.Groups {
		plan = append(plan, PlanEntry{Level: LevelGroup, ID: g})
	}
	for _, s := range sel.Subthemes {
		if !ov.Subthemes[s] {
			plan = append(plan, PlanEntry{Level: LevelSubtheme, ID: s})
		}
	}
	for _, t := range sel.Themes {
		if !ov.Themes[t] {
			plan = append(plan, PlanEntry{Level: LevelTheme, ID: t})
		}
	}
	return plan
}

// OverridingGroups returns the selected groups whose subtheme is the
// given node (level subtheme) or lies under the given theme (level
// theme). Sampled per-node draws must exclude these groups' questions,
// since the sampling aggregate cannot express negative filters.
func OverridingGroups(level, nodeID string, sel Selection, maps AncestryMaps) []string {
	var out []string
	for _, g := range sel.Groups {
		s, ok := maps.GroupToSubtheme[g]
		if !ok {
			continue
		}
		switch level {
		case LevelSubtheme:
			if s == nodeID {
				out = append(out, g)
			}
		case LevelTheme:
			if maps.SubthemeToTheme[s] == nodeID {
				out = append(out, g)
			}
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
