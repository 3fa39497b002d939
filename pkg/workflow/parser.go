package workflow

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Parse reads and validates the workflow definition at the given path
func Parse(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "Could not open file %s.", path)
	}

	wf, err := ParseBytes(data)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse %s.", path)
	}

	return wf, nil
}

// ParseBytes decodes a workflow definition. Unknown fields are rejected to
// catch typos in trigger and step declarations early.
func ParseBytes(data []byte) (*Workflow, error) {
	var wf Workflow
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&wf)
	if err != nil && err != io.EOF {
		return nil, err
	}

	err = wf.validate()
	if err != nil {
		return nil, err
	}

	return &wf, nil
}

func (wf *Workflow) validate() error {
	if wf.On.Push == nil && !wf.On.Manual {
		return eris.New("workflow has no trigger")
	}

	if len(wf.Jobs) == 0 {
		return eris.New("workflow has no jobs")
	}

	for name, job := range wf.Jobs {
		if job == nil || len(job.Steps) == 0 {
			return eris.Errorf("job %s has no steps", name)
		}

		for idx, step := range job.Steps {
			if step.Name == "" {
				return eris.Errorf("step %d of job %s has no name", idx+1, name)
			}

			if (step.Uses == "") == (step.Run == "") {
				return eris.Errorf("step %s must declare either uses or run", step.Name)
			}

			switch step.Uses {
			case "", StepCheckout, StepBuild, StepUpload:
			default:
				return eris.Errorf("step %s uses unknown kind %s", step.Name, step.Uses)
			}
		}
	}

	return nil
}
