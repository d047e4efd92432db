package machine

import (
	"strings"

	"github.com/kfhr/cashdesk-backend/internal/models"
)

// branchAliases folds the historical spellings of each branch (Thai labels,
// old deployment names) onto the canonical branch id.
var branchAliases = map[string]string{
	"noniko":        models.BranchNoniko,
	"โนนิโกะ":       models.BranchNoniko,
	"cold_storage":  models.BranchColdStorage,
	"coldstorage":   models.BranchColdStorage,
	"klangfrozen":   models.BranchColdStorage,
	"คลังห้องเย็น":  models.BranchColdStorage,
}

// BranchResolver maps a branch id to the base URL of that branch's machine
// API. Unknown branches silently fall back to the default base so partial
// configuration never takes the approval flow down.
type BranchResolver struct {
	defaultBase string
	overrides   map[string]string
}

func NewBranchResolver(defaultBase string, overrides map[string]string) *BranchResolver {
	canonical := make(map[string]string, len(overrides))
	for branch, base := range overrides {
		canonical[CanonicalBranch(branch)] = strings.TrimRight(base, "/")
	}
	return &BranchResolver{
		defaultBase: strings.TrimRight(defaultBase, "/"),
		overrides:   canonical,
	}
}

// CanonicalBranch normalizes a branch name, resolving historical aliases.
// Unrecognized names are returned lowercased unchanged.
func CanonicalBranch(branch string) string {
	key := strings.ToLower(strings.TrimSpace(branch))
	if canonical, ok := branchAliases[key]; ok {
		return canonical
	}
	return key
}

// Resolve returns the machine API base URL for the branch.
func (r *BranchResolver) Resolve(branch string) string {
	if base, ok := r.overrides[CanonicalBranch(branch)]; ok && base != "" {
		return base
	}
	return r.defaultBase
}
