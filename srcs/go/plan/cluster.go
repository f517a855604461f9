package plan

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

const (
	// ChiefRole holds index 0 of the flattened worker list
	ChiefRole = `chief`
	// WorkerRole is the role every other device-bound slot falls into
	WorkerRole = `worker`
)

// IsWorkerRole reports whether a role is expanded into one slot per device.
func IsWorkerRole(role string) bool {
	return role == ChiefRole || role == WorkerRole
}

// ClusterSpec maps a role to its ordered endpoints
type ClusterSpec map[string]EndpointList

func (c ClusterSpec) Roles() []string {
	var roles []string
	for r := range c {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func (c ClusterSpec) Clone() ClusterSpec {
	d := make(ClusterSpec, len(c))
	for r, l := range c {
		d[r] = l.Clone()
	}
	return d
}

// Workers flattens the chief endpoints followed by the worker endpoints.
func (c ClusterSpec) Workers() EndpointList {
	var l EndpointList
	l = append(l, c[ChiefRole]...)
	l = append(l, c[WorkerRole]...)
	return l
}

func (c ClusterSpec) Lookup(t TaskRef) (Endpoint, bool) {
	l, ok := c[t.Type]
	if !ok || t.Index < 0 || t.Index >= len(l) {
		return Endpoint{}, false
	}
	return l[t.Index], true
}

var errDuplicatedEndpoint = errors.New("duplicated endpoint")

// Validate checks that no endpoint appears twice across all roles.
func (c ClusterSpec) Validate() error {
	owners := make(map[Endpoint]TaskRef)
	for _, r := range c.Roles() {
		for i, e := range c[r] {
			if t, ok := owners[e]; ok {
				return errors.Wrapf(errDuplicatedEndpoint, "%s used by both %s and %s", e, t, TaskRef{Type: r, Index: i})
			}
			owners[e] = TaskRef{Type: r, Index: i}
		}
	}
	return nil
}

func (c ClusterSpec) DebugString() string {
	bs, _ := json.Marshal(c)
	return string(bs)
}

// TaskRef locates one slot in a ClusterSpec
type TaskRef struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

func (t TaskRef) String() string {
	return fmt.Sprintf("%s:%d", t.Type, t.Index)
}

// TFConfig is the JSON document exchanged through TF_CONFIG
type TFConfig struct {
	Cluster ClusterSpec `json:"cluster"`
	Task    TaskRef     `json:"task"`
}

var DefaultTFConfig = TFConfig{
	Cluster: ClusterSpec{
		ChiefRole: EndpointList{{Host: `127.0.0.1`, Port: 20000}},
	},
	Task: TaskRef{Type: ChiefRole, Index: 0},
}

// ParseTFConfig parses TF_CONFIG, an empty document gives the single chief default.
func ParseTFConfig(js string) (*TFConfig, error) {
	if len(js) == 0 {
		return defaultTFConfig(), nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(js), &raw); err != nil {
		return nil, errors.Wrap(err, "invalid TF_CONFIG")
	}
	if len(raw) == 0 {
		return defaultTFConfig(), nil
	}
	var c TFConfig
	if err := json.Unmarshal([]byte(js), &c); err != nil {
		return nil, errors.Wrap(err, "invalid TF_CONFIG")
	}
	if _, ok := raw[`task`]; !ok {
		return nil, errors.New("invalid TF_CONFIG: missing task")
	}
	if len(c.Cluster) == 0 {
		return nil, errors.New("invalid TF_CONFIG: missing cluster")
	}
	return &c, nil
}

func defaultTFConfig() *TFConfig {
	return &TFConfig{
		Cluster: DefaultTFConfig.Cluster.Clone(),
		Task:    DefaultTFConfig.Task,
	}
}

// String returns the JSON encoding, roles are sorted so the output is stable.
func (c TFConfig) String() string {
	bs, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(bs)
}
