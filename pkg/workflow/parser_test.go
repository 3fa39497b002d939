package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releaseWorkflow = `
name: Build

on:
  push:
    branches: [main]
    paths:
      - "src/**"
      - "**.toml"
      - "**.yml"
  manual: true

jobs:
  release:
    matrix:
      target:
        - x86_64-pc-windows-gnu
      fail-fast: false
    steps:
      - name: Checkout
        uses: checkout
      - name: Compile
        uses: rust-build
        with:
          upload-mode: none
      - name: Upload artifact
        uses: upload-artifact
        with:
          artifact-name: Binary
          paths:
            - $BUILT_ARCHIVE
            - $BUILT_CHECKSUM
`

func TestParseReleaseWorkflow(t *testing.T) {
	wf, err := ParseBytes([]byte(releaseWorkflow))
	require.NoError(t, err)

	assert.Equal(t, "Build", wf.Name)
	require.NotNil(t, wf.On.Push)
	assert.Equal(t, []string{"main"}, wf.On.Push.Branches)
	assert.Equal(t, []string{"src/**", "**.toml", "**.yml"}, wf.On.Push.Paths)
	assert.True(t, wf.On.Manual)

	require.Contains(t, wf.Jobs, "release")
	job := wf.Jobs["release"]
	assert.Equal(t, []string{"x86_64-pc-windows-gnu"}, job.Matrix.Targets)
	assert.False(t, job.Matrix.FailFast)

	require.Len(t, job.Steps, 3)
	assert.Equal(t, StepCheckout, job.Steps[0].Uses)
	assert.Equal(t, StepBuild, job.Steps[1].Uses)
	assert.Equal(t, "none", job.Steps[1].With.UploadMode)
	assert.Equal(t, StepUpload, job.Steps[2].Uses)
	assert.Equal(t, "Binary", job.Steps[2].With.ArtifactName)
	assert.Equal(t, []string{"$BUILT_ARCHIVE", "$BUILT_CHECKSUM"}, job.Steps[2].With.Paths)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yml")
	require.NoError(t, os.WriteFile(path, []byte(releaseWorkflow), 0o600))

	wf, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Build", wf.Name)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]string{
		"no trigger": `
jobs:
  release:
    steps:
      - name: Checkout
        uses: checkout
`,
		"no jobs": `
on:
  manual: true
`,
		"no steps": `
on:
  manual: true
jobs:
  release: {}
`,
		"unknown step kind": `
on:
  manual: true
jobs:
  release:
    steps:
      - name: Publish
        uses: publish-to-mars
`,
		"uses and run": `
on:
  manual: true
jobs:
  release:
    steps:
      - name: Confused
        uses: checkout
        run: echo hi
`,
		"unnamed step": `
on:
  manual: true
jobs:
  release:
    steps:
      - uses: checkout
`,
		"unknown field": `
on:
  manual: true
  schedule: "* * * * *"
jobs:
  release:
    steps:
      - name: Checkout
        uses: checkout
`,
		"unknown with parameter": `
on:
  manual: true
jobs:
  release:
    steps:
      - name: Upload
        uses: upload-artifact
        with:
          artifact: Binary
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLegs(t *testing.T) {
	job := &Job{Matrix: Matrix{Targets: []string{"x86_64-pc-windows-gnu"}}}
	legs := job.Legs("release")
	require.Len(t, legs, 1)
	assert.Equal(t, "x86_64-pc-windows-gnu", legs[0].Target)
	assert.Equal(t, "release", legs[0].Job)

	noMatrix := &Job{}
	legs = noMatrix.Legs("release")
	require.Len(t, legs, 1)
	assert.Empty(t, legs[0].Target)
}
