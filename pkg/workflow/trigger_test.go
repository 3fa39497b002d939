package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"src/**", "src/main.rs", true},
		{"src/**", "src/ui/window.rs", true},
		{"src/**", "srcond/main.rs", false},
		{"src/**", "docs/readme.md", false},
		{"**.toml", "Cargo.toml", true},
		{"**.toml", "crates/loader/Cargo.toml", true},
		{"**.toml", "Cargo.lock", false},
		{"**.yml", ".github/workflows/build.yml", true},
		{"*.rs", "main.rs", true},
		{"*.rs", "src/main.rs", false},
		{"main", "main", true},
		{"main", "maintenance", false},
		{"release/*", "release/v2", true},
		{"release/*", "release/v2/hotfix", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchPattern(tc.pattern, tc.path),
			"pattern %q against %q", tc.pattern, tc.path)
	}
}

func TestMatches(t *testing.T) {
	wf, err := ParseBytes([]byte(releaseWorkflow))
	require.NoError(t, err)

	cases := []struct {
		name string
		ev   Event
		want bool
	}{
		{
			name: "push to main touching src",
			ev:   Event{Kind: EventPush, Branch: "main", Paths: []string{"src/main.rs"}},
			want: true,
		},
		{
			name: "push to main touching manifest",
			ev:   Event{Kind: EventPush, Branch: "main", Paths: []string{"Cargo.toml"}},
			want: true,
		},
		{
			name: "push to main touching workflow file",
			ev:   Event{Kind: EventPush, Branch: "main", Paths: []string{".github/workflows/build.yml"}},
			want: true,
		},
		{
			name: "push to main touching nothing relevant",
			ev:   Event{Kind: EventPush, Branch: "main", Paths: []string{"README.md", "Cargo.lock"}},
			want: false,
		},
		{
			name: "push to another branch",
			ev:   Event{Kind: EventPush, Branch: "develop", Paths: []string{"src/main.rs"}},
			want: false,
		},
		{
			name: "manual dispatch",
			ev:   Event{Kind: EventManual},
			want: true,
		},
		{
			name: "unknown event kind",
			ev:   Event{Kind: "release"},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, wf.Matches(tc.ev))
		})
	}
}

func TestMatchesWithoutFilters(t *testing.T) {
	wf := &Workflow{On: Triggers{Push: &PushTrigger{}}}

	// no filters at all: every push triggers, manual dispatch doesn't
	assert.True(t, wf.Matches(Event{Kind: EventPush, Branch: "feature/x", Paths: []string{"anything"}}))
	assert.False(t, wf.Matches(Event{Kind: EventManual}))
}
