package workflow

import (
	"regexp"
	"strings"
)

// Event kinds accepted by Matches
const (
	EventPush   = "push"
	EventManual = "manual"
)

// Event describes a repository event the workflow may react to
type Event struct {
	Kind   string
	Branch string
	// Paths lists the files touched by a push, relative to the repo root
	Paths []string
}

// Matches reports whether the event triggers this workflow. Manual dispatch
// matches whenever it is enabled; pushes have to pass the branch and path
// filters; everything else never matches.
func (wf *Workflow) Matches(ev Event) bool {
	switch ev.Kind {
	case EventManual:
		return wf.On.Manual
	case EventPush:
		if wf.On.Push == nil {
			return false
		}

		return wf.On.Push.matches(ev)
	default:
		return false
	}
}

func (t *PushTrigger) matches(ev Event) bool {
	if len(t.Branches) > 0 {
		found := false
		for _, branch := range t.Branches {
			if MatchPattern(branch, ev.Branch) {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	if len(t.Paths) == 0 {
		return true
	}

	for _, path := range ev.Paths {
		for _, pattern := range t.Paths {
			if MatchPattern(pattern, path) {
				return true
			}
		}
	}

	return false
}

// MatchPattern checks a slash-separated path against a filter pattern.
// "*" and "?" never cross a path separator, "**" matches anything
// including separators ("src/**", "**.toml").
func MatchPattern(pattern, path string) bool {
	var expr strings.Builder
	expr.WriteString("^")

	for idx := 0; idx < len(pattern); idx++ {
		switch pattern[idx] {
		case '*':
			if idx+1 < len(pattern) && pattern[idx+1] == '*' {
				expr.WriteString(".*")
				idx++
			} else {
				expr.WriteString("[^/]*")
			}
		case '?':
			expr.WriteString("[^/]")
		default:
			expr.WriteString(regexp.QuoteMeta(pattern[idx : idx+1]))
		}
	}

	expr.WriteString("$")

	matched, err := regexp.MatchString(expr.String(), path)
	if err != nil {
		return false
	}

	return matched
}
