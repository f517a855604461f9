package plan

import (
	"github.com/pkg/errors"
)

// Plan is the cluster after every chief/worker slot is expanded into one slot per local device
type Plan struct {
	Cluster ClusterSpec
	Workers EndpointList
	Ports   PortRange

	// Tasks[i] is the slot of the i-th local device, nil when the local task is not a worker.
	Tasks []TaskRef
}

var (
	errNoWorkers        = errors.New("cluster has neither chief nor worker")
	errDuplicatedHost   = errors.New("duplicated worker host")
	errTaskNotFound     = errors.New("task not found in cluster")
	errEndpointNotFound = errors.New("generated endpoint not found in expanded cluster")
)

// Expand rewrites the cluster of c so that every worker host gets one endpoint per local device.
func Expand(c TFConfig, nDevices int, basePort int) (*Plan, error) {
	pr, err := GenPortRange(basePort, nDevices)
	if err != nil {
		return nil, err
	}
	if err := c.Cluster.Validate(); err != nil {
		return nil, err
	}
	workers := c.Cluster.Workers()
	if len(workers) == 0 {
		return nil, errNoWorkers
	}
	hosts := workers.Hosts()
	seen := make(map[string]struct{})
	for _, h := range hosts {
		if _, ok := seen[h]; ok {
			return nil, errors.Wrapf(errDuplicatedHost, "%s in %s", h, workers)
		}
		seen[h] = struct{}{}
	}
	newWorkers := GenEndpoints(hosts, *pr)

	_, hasChief := c.Cluster[ChiefRole]
	cluster := c.Cluster.Clone()
	if hasChief {
		cluster[ChiefRole] = newWorkers[:1].Clone()
		if len(newWorkers) > 1 {
			cluster[WorkerRole] = newWorkers[1:].Clone()
		} else {
			delete(cluster, WorkerRole)
		}
	} else {
		cluster[WorkerRole] = newWorkers.Clone()
	}
	p := &Plan{
		Cluster: cluster,
		Workers: newWorkers,
		Ports:   *pr,
	}
	if !IsWorkerRole(c.Task.Type) {
		return p, nil
	}

	self, ok := c.Cluster.Lookup(c.Task)
	if !ok {
		return nil, errors.Wrapf(errTaskNotFound, "%s", c.Task)
	}
	for i := 0; i < pr.Cap(); i++ {
		e := self.WithPort(pr.Get(i))
		pos, ok := newWorkers.Rank(e)
		if !ok {
			return nil, errors.Wrapf(errEndpointNotFound, "%s", e)
		}
		p.Tasks = append(p.Tasks, taskOf(pos, hasChief))
	}
	return p, nil
}

func taskOf(pos int, hasChief bool) TaskRef {
	if !hasChief {
		return TaskRef{Type: WorkerRole, Index: pos}
	}
	if pos == 0 {
		return TaskRef{Type: ChiefRole, Index: 0}
	}
	return TaskRef{Type: WorkerRole, Index: pos - 1}
}

// TFConfig returns the TF_CONFIG of the i-th local device.
func (p Plan) TFConfig(i int) TFConfig {
	return TFConfig{Cluster: p.Cluster, Task: p.Tasks[i]}
}
