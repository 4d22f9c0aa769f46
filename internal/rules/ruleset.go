package rules

import (
	"maps"
	"slices"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// RuleSet bundles the operations injected at each kind of insertion point.
// Before and After are keyed by exact type identifier. The zero value injects
// nothing.
type RuleSet struct {
	Start  []domain.Operation
	End    []domain.Operation
	Before map[string][]domain.Operation
	After  map[string][]domain.Operation
}

// IsEmpty reports whether the rule set injects nothing.
func (rs RuleSet) IsEmpty() bool {
	return len(rs.Start) == 0 && len(rs.End) == 0 && len(rs.Before) == 0 && len(rs.After) == 0
}

// clone copies the containers of the rule set. Operation instances are
// shared with the original.
func (rs RuleSet) clone() RuleSet {
	return RuleSet{
		Start:  slices.Clone(rs.Start),
		End:    slices.Clone(rs.End),
		Before: cloneTypeMap(rs.Before),
		After:  cloneTypeMap(rs.After),
	}
}

func cloneTypeMap(in map[string][]domain.Operation) map[string][]domain.Operation {
	if in == nil {
		return nil
	}
	out := make(map[string][]domain.Operation, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

// AuthorisedRuleSet applies Rules to principals holding the Auth op auth.
type AuthorisedRuleSet struct {
	Auth  string
	Rules RuleSet
}

// Selection is the outcome of choosing a rule set for a principal. Rules
// shares storage with the registry and must not be modified.
type Selection struct {
	Rules RuleSet
	// Auth is the matched op auth; empty when Default is set.
	Auth    string
	Default bool
}

// Key returns a label for logs: the matched auth or "default".
func (s Selection) Key() string {
	if s.Default {
		return "default"
	}
	return s.Auth
}

// ordered collapses repeated auths: a repeated auth keeps the position of its
// first occurrence and takes the value of its last.
func ordered(in []AuthorisedRuleSet) []AuthorisedRuleSet {
	if len(in) == 0 {
		return nil
	}
	index := make(map[string]int, len(in))
	out := make([]AuthorisedRuleSet, 0, len(in))
	for _, a := range in {
		entry := AuthorisedRuleSet{Auth: a.Auth, Rules: a.Rules.clone()}
		if i, ok := index[a.Auth]; ok {
			out[i] = entry
			continue
		}
		index[a.Auth] = len(out)
		out = append(out, entry)
	}
	return out
}

// typeKeys returns the sorted keys of a before/after map, for logs.
func typeKeys(m map[string][]domain.Operation) []string {
	return slices.Sorted(maps.Keys(m))
}
