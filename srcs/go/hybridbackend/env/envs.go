package env

// Variables read by hb-run and rewritten for every member.
const (
	CudaVisibleDevicesEnvKey   = `CUDA_VISIBLE_DEVICES`
	NvidiaVisibleDevicesEnvKey = `NVIDIA_VISIBLE_DEVICES`

	TFConfigEnvKey       = `TF_CONFIG`
	InterOpThreadsEnvKey = `TF_NUM_INTEROP_THREADS`
	IntraOpThreadsEnvKey = `TF_NUM_INTRAOP_THREADS`

	BasePortEnvKey            = `HB_RUN_BASE_PORT`
	OpOptimizationDisabledKey = `HB_OP_OPTIMIZATION_DISABLED`
)

// Internal environment variables set by hb-run, users should not set them.
const (
	RunIDEnvKey     = `HB_RUN_ID`
	LocalRankEnvKey = `HB_RUN_LOCAL_RANK`
)

const (
	VoidDevices = `void`
	AllDevices  = `all`
)
