package env

import (
	"os"
	"runtime"
	"strconv"

	"github.com/alibaba/HybridBackend/srcs/go/plan"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(string) (string, bool)

// Config is what hb-run needs before it knows how many devices are visible.
type Config struct {
	BasePort int
	RunID    string

	lookup LookupFunc
}

// ClusterConfig is only parsed when the job fans out to more than one device.
type ClusterConfig struct {
	TFConfig plan.TFConfig
	// 0 means the hint is not passed to members.
	InterOpThreads int
	IntraOpThreads int
}

const (
	minInterOpThreads = 4
	minIntraOpThreads = 1
)

func ParseConfigFromEnv(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	basePort, err := parseInt(lookup, BasePortEnvKey, plan.DefaultBasePort)
	if err != nil {
		return nil, err
	}
	runID, ok := lookup(RunIDEnvKey)
	if !ok || len(runID) == 0 {
		runID = uuid.NewString()
	}
	return &Config{
		BasePort: basePort,
		RunID:    runID,
		lookup:   lookup,
	}, nil
}

// ParseClusterConfig reads TF_CONFIG and the thread hints from the environment c was parsed from.
func (c Config) ParseClusterConfig() (*ClusterConfig, error) {
	lookup := c.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	val, _ := lookup(TFConfigEnvKey)
	tfConfig, err := plan.ParseTFConfig(val)
	if err != nil {
		return nil, err
	}
	interOp, err := parseInt(lookup, InterOpThreadsEnvKey, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	intraOp, err := parseInt(lookup, IntraOpThreadsEnvKey, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	return &ClusterConfig{
		TFConfig:       *tfConfig,
		InterOpThreads: interOp,
		IntraOpThreads: intraOp,
	}, nil
}

// parseInt returns def if key is unset, and 0 if it is set to empty
func parseInt(lookup LookupFunc, key string, def int) (int, error) {
	val, ok := lookup(key)
	if !ok {
		return def, nil
	}
	if len(val) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if n < 0 {
		return 0, errors.Errorf("invalid %s: %d", key, n)
	}
	return n, nil
}

// ThreadsPerDevice splits the thread hints evenly between n devices.
func (c ClusterConfig) ThreadsPerDevice(n int) (interOp int, intraOp int) {
	if c.InterOpThreads > 0 {
		interOp = max(c.InterOpThreads/n, minInterOpThreads)
	}
	if c.IntraOpThreads > 0 {
		intraOp = max(c.IntraOpThreads/n, minIntraOpThreads)
	}
	return interOp, intraOp
}
