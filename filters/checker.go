package filters

import (
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/repair"
)

const MeshCheckerName = "mesh_checker"

type MeshCheckerOptions struct {
	CheckWatertight  bool `json:"check_watertight"`
	CheckIntersect   bool `json:"check_intersect"`
	AttemptRepair    bool `json:"attempt_repair"`
	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultMeshCheckerOptions() MeshCheckerOptions {
	defaults := repair.DefaultOptions()
	return MeshCheckerOptions{
		CheckWatertight:  defaults.CheckWatertight,
		CheckIntersect:   defaults.CheckSelfIntersection,
		AttemptRepair:    defaults.AttemptRepair,
		UpdateAttributes: true,
	}
}

func (m MeshCheckerOptions) Validate() error {
	return nil
}

// A MeshChecker runs the validation and repair pipeline on a polygon soup.
type MeshChecker struct {
	attributeStage
	opts MeshCheckerOptions
}

func NewMeshChecker(opts MeshCheckerOptions) (*MeshChecker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &MeshChecker{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (m *MeshChecker) Name() string {
	return MeshCheckerName
}

func (m *MeshChecker) Run(req *Request) (*Output, error) {
	out, _, err := m.Check(req)
	return out, err
}

// Check runs the pipeline and also returns its detailed report.
func (m *MeshChecker) Check(req *Request) (*Output, *repair.Report, error) {
	if err := requireInput(req); err != nil {
		return nil, nil, err
	}
	res, err := repair.Run(host.ToSoup(req.Input), repair.Options{
		CheckWatertight:       m.opts.CheckWatertight,
		CheckSelfIntersection: m.opts.CheckIntersect,
		AttemptRepair:         m.opts.AttemptRepair,
	})
	if err != nil {
		return nil, nil, kernelError(err)
	}

	out := &Output{}
	for _, msg := range res.Report.Messages {
		switch msg.Kind {
		case repair.Incomplete:
			out.warn(RepairIncomplete, "%s", msg.Text)
		case repair.NonManifold:
			out.warn(NonManifoldInput, "%s", msg.Text)
		default:
			out.warn(General, "%s", msg.Text)
		}
	}

	if !m.opts.AttemptRepair {
		out.Data = req.Input.Copy()
		return out, res.Report, nil
	}
	if res.Surface != nil {
		out.Data = host.FromSurface(res.Surface)
	} else {
		out.Data = host.FromSoup(res.Soup)
	}
	m.interpolateAttributes(req.Input, out.Data)
	return out, res.Report, nil
}
