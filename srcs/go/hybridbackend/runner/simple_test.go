package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/env"
	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/job"
	"github.com/alibaba/HybridBackend/srcs/go/plan"
	"github.com/alibaba/HybridBackend/srcs/go/proc"
	"github.com/alibaba/HybridBackend/srcs/go/utils/runner/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sync.Mutex
	runs []proc.Envs
}

func (r *recorder) run(_ context.Context, envs proc.Envs) error {
	r.Lock()
	defer r.Unlock()
	r.runs = append(r.runs, envs)
	return nil
}

func newJob(t *testing.T, envs map[string]string, f local.Func) job.Job {
	c, err := env.ParseConfigFromEnv(func(key string) (string, bool) {
		val, ok := envs[key]
		return val, ok
	})
	require.NoError(t, err)
	return job.Job{Func: f, Config: *c, Grace: 5 * time.Second}
}

func Test_SimpleRunNoDevice(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `void`)
	t.Setenv(`TF_CONFIG`, `{"cluster":{"worker":["a:1","b:1"]},"task":{"type":"worker","index":0}}`)
	var r recorder
	require.NoError(t, SimpleRun(context.Background(), newJob(t, nil, r.run)))
	require.Len(t, r.runs, 1)
	assert.Equal(t, ``, r.runs[0][`CUDA_VISIBLE_DEVICES`])
	assert.Equal(t, `1`, r.runs[0][`HB_OP_OPTIMIZATION_DISABLED`])
	assert.Equal(t, `{"cluster":{"worker":["a:1","b:1"]},"task":{"type":"worker","index":0}}`, r.runs[0][`TF_CONFIG`])
}

func Test_SimpleRunOneDevice(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `GPU-only`)
	t.Setenv(`TF_CONFIG`, ``)
	var r recorder
	require.NoError(t, SimpleRun(context.Background(), newJob(t, nil, r.run)))
	require.Len(t, r.runs, 1)
	assert.Equal(t, `0`, r.runs[0][`CUDA_VISIBLE_DEVICES`])
	assert.Equal(t, ``, r.runs[0][`TF_CONFIG`])
	assert.NotContains(t, r.runs[0], `HB_OP_OPTIMIZATION_DISABLED`)
}

func Test_SimpleRunFastPathsIgnoreClusterConfig(t *testing.T) {
	broken := map[string]string{
		`TF_CONFIG`:              `{"cluster":{"chief":["h0:1"]}}`,
		`TF_NUM_INTEROP_THREADS`: `auto`,
	}
	for _, devices := range []string{`void`, `GPU-x`} {
		t.Setenv(`CUDA_VISIBLE_DEVICES`, devices)
		var r recorder
		require.NoError(t, SimpleRun(context.Background(), newJob(t, broken, r.run)), devices)
		assert.Len(t, r.runs, 1, devices)
	}

	t.Setenv(`CUDA_VISIBLE_DEVICES`, `0,1`)
	var r recorder
	require.Error(t, SimpleRun(context.Background(), newJob(t, broken, r.run)))
	assert.Empty(t, r.runs)
}

func Test_SimpleRunFanOut(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `2,3,5`)
	var r recorder
	j := newJob(t, map[string]string{
		`TF_CONFIG`:              `{"cluster":{"chief":["h0:1"],"worker":["h1:1"]},"task":{"type":"worker","index":0}}`,
		`TF_NUM_INTEROP_THREADS`: `24`,
		`TF_NUM_INTRAOP_THREADS`: `24`,
	}, r.run)
	require.NoError(t, SimpleRun(context.Background(), j))
	require.Len(t, r.runs, 3)
	sort.Slice(r.runs, func(a, b int) bool {
		return r.runs[a][`HB_RUN_LOCAL_RANK`] < r.runs[b][`HB_RUN_LOCAL_RANK`]
	})

	cluster := `{"chief":["h0:20001"],"worker":["h0:20002","h0:20003","h1:20001","h1:20002","h1:20003"]}`
	for i, device := range []string{`2`, `3`, `5`} {
		envs := r.runs[i]
		assert.Equal(t, device, envs[`CUDA_VISIBLE_DEVICES`])
		assert.Equal(t, `8`, envs[`TF_NUM_INTEROP_THREADS`])
		assert.Equal(t, `8`, envs[`TF_NUM_INTRAOP_THREADS`])
		assert.Equal(t, j.Config.RunID, envs[`HB_RUN_ID`])
		c, err := plan.ParseTFConfig(envs[`TF_CONFIG`])
		require.NoError(t, err)
		assert.Equal(t, cluster, c.Cluster.DebugString())
		assert.Equal(t, plan.TaskRef{Type: plan.WorkerRole, Index: 2 + i}, c.Task)
	}
}

func Test_SimpleRunAuxiliaryRole(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `0,1`)
	var r recorder
	j := newJob(t, map[string]string{
		`TF_CONFIG`: `{"cluster":{"chief":["h0:1"],"ps":["h9:1"]},"task":{"type":"ps","index":0}}`,
	}, r.run)
	require.NoError(t, SimpleRun(context.Background(), j))
	require.Len(t, r.runs, 1)
	assert.Equal(t, ``, r.runs[0][`CUDA_VISIBLE_DEVICES`])
	assert.Equal(t, `1`, r.runs[0][`HB_OP_OPTIMIZATION_DISABLED`])
	assert.Equal(t, `{"cluster":{"chief":["h0:20001"],"ps":["h9:1"],"worker":["h0:20002"]},"task":{"type":"ps","index":0}}`, r.runs[0][`TF_CONFIG`])
}

func Test_SimpleRunConfigError(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `0,1`)
	var r recorder
	j := newJob(t, map[string]string{
		`TF_CONFIG`: `{"cluster":{"worker":["h0:1"]},"task":{"type":"worker","index":3}}`,
	}, r.run)
	require.Error(t, SimpleRun(context.Background(), j))
	assert.Empty(t, r.runs)
}

// groupRunning reports whether any process of group pgid is alive, zombies excluded.
func groupRunning(pgid int) bool {
	stats, _ := filepath.Glob(`/proc/[0-9]*/stat`)
	for _, f := range stats {
		bs, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		i := bytes.LastIndexByte(bs, ')')
		if i < 0 {
			continue
		}
		// state ppid pgrp ...
		fields := strings.Fields(string(bs[i+1:]))
		if len(fields) > 2 && fields[0] != `Z` && fields[2] == strconv.Itoa(pgid) {
			return true
		}
	}
	return false
}

func Test_SimpleRunExecFailure(t *testing.T) {
	t.Setenv(`CUDA_VISIBLE_DEVICES`, `a,b`)
	pidDir := t.TempDir()
	t.Setenv(`HB_RUN_TEST_PID_DIR`, pidDir)
	j := newJob(t, nil, nil)
	j.Prog = `/bin/sh`
	j.Args = []string{`-c`, `echo $$ > "$HB_RUN_TEST_PID_DIR/$CUDA_VISIBLE_DEVICES"; if [ "$CUDA_VISIBLE_DEVICES" = b ]; then sleep 0.2; exit 7; fi; sleep 30 & wait`}
	t0 := time.Now()
	err := SimpleRun(context.Background(), j)
	var ee *local.ExitError
	require.True(t, errors.As(err, &ee), "%v", err)
	assert.Equal(t, 7, ee.ExitCode())
	assert.Equal(t, `worker:0/b exits unexpectedly: 7`, err.Error())

	bs, err := os.ReadFile(filepath.Join(pidDir, `a`))
	require.NoError(t, err)
	pgid, err := strconv.Atoi(strings.TrimSpace(string(bs)))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !groupRunning(pgid) }, 2*time.Second, 20*time.Millisecond,
		"process group %d survived", pgid)
	assert.Less(t, time.Since(t0), 10*time.Second)
}
