package job

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/env"
	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/pkg/errors"
)

// DeviceID names one accelerator, e.g. an index or a GPU UUID
type DeviceID string

// https://devblogs.nvidia.com/cuda-pro-tip-control-gpu-visibility-cuda_visible_devices/
var visibleDevicesKeys = []string{
	env.CudaVisibleDevicesEnvKey,
	env.NvidiaVisibleDevicesEnvKey,
}

var lookupEnv = os.LookupEnv

var queryDevicesCommand = []string{`nvidia-smi`, `--query-gpu=uuid`, `--format=csv,noheader`}

var runQuery = func(ctx context.Context, prog string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, prog, args...).Output()
}

// QueryVisibleDevices lists the devices this process may use, in order.
// Failing to query the hardware is not fatal: the result is empty and the job runs on CPU.
func QueryVisibleDevices(ctx context.Context) []DeviceID {
	val := getVisibleDevices()
	switch val {
	case ``, env.VoidDevices:
		return nil
	case env.AllDevices:
		ids, err := queryDevices(ctx)
		if err != nil {
			log.Warnf("failed to query devices, falling back to CPU: %v", err)
			return nil
		}
		return ids
	}
	return parseVisibleDevices(val)
}

func getVisibleDevices() string {
	for _, k := range visibleDevicesKeys {
		if val, ok := lookupEnv(k); ok && len(val) > 0 {
			return val
		}
	}
	return ``
}

func parseVisibleDevices(val string) []DeviceID {
	var ids []DeviceID
	for _, p := range strings.Split(val, ",") {
		ids = append(ids, DeviceID(p))
	}
	return ids
}

var errMalformedQueryOutput = errors.New("malformed device query output")

func queryDevices(ctx context.Context) ([]DeviceID, error) {
	out, err := runQuery(ctx, queryDevicesCommand[0], queryDevicesCommand[1:]...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", strings.Join(queryDevicesCommand, " "))
	}
	var ids []DeviceID
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if strings.ContainsAny(line, " \t,") {
			return nil, errors.Wrapf(errMalformedQueryOutput, "%q", line)
		}
		ids = append(ids, DeviceID(line))
	}
	return ids, nil
}
