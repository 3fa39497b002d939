package workflow

// Step kinds understood by the pipeline runner
const (
	StepCheckout = "checkout"
	StepBuild    = "rust-build"
	StepUpload   = "upload-artifact"
)

// Workflow is a parsed release workflow definition
type Workflow struct {
	Name string          `yaml:"name"`
	On   Triggers        `yaml:"on"`
	Jobs map[string]*Job `yaml:"jobs"`
}

// Triggers lists the events that start the workflow
type Triggers struct {
	Push   *PushTrigger `yaml:"push"`
	Manual bool         `yaml:"manual"`
}

// PushTrigger filters push events by branch and changed paths.
// An empty filter list matches everything.
type PushTrigger struct {
	Branches []string `yaml:"branches"`
	Paths    []string `yaml:"paths"`
}

// Job is a single job template, expanded once per matrix leg
type Job struct {
	Matrix Matrix  `yaml:"matrix"`
	Steps  []*Step `yaml:"steps"`
}

// Matrix declares the target triples a job is built for
type Matrix struct {
	Targets  []string `yaml:"target"`
	FailFast bool     `yaml:"fail-fast"`
}

// Step is one entry of a job's step list. Exactly one of Uses and Run is set.
type Step struct {
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses"`
	Run  string            `yaml:"run"`
	With With              `yaml:"with"`
	Env  map[string]string `yaml:"env"`
}

// With holds the parameters of the builtin step kinds. Paths is a proper
// list so file names containing spaces survive.
type With struct {
	// checkout
	Path       string `yaml:"path"`
	Repository string `yaml:"repository"`
	Ref        string `yaml:"ref"`
	// rust-build
	UploadMode string `yaml:"upload-mode"`
	// upload-artifact
	ArtifactName string   `yaml:"artifact-name"`
	Paths        []string `yaml:"paths"`
}

// Leg is one expanded variant of a job
type Leg struct {
	Job    string
	Target string
}

// Legs expands the job's matrix. A job without a matrix runs as a single
// leg with an empty target.
func (j *Job) Legs(name string) []Leg {
	if len(j.Matrix.Targets) == 0 {
		return []Leg{{Job: name}}
	}

	legs := make([]Leg, 0, len(j.Matrix.Targets))
	for _, target := range j.Matrix.Targets {
		legs = append(legs, Leg{Job: name, Target: target})
	}
	return legs
}
