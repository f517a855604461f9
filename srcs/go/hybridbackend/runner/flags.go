package runner

import (
	"errors"
	"flag"
	"os"

	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/alibaba/HybridBackend/srcs/go/utils"
)

func Init(f *FlagSet, args []string) {
	if err := f.Parse(args); err != nil {
		utils.ExitErr(err)
	}
	if log.Enabled(log.Debug) {
		for i, a := range args {
			log.Debugf("[arg] [%d]=%s", i, a)
		}
		for _, prefix := range []string{`CUDA_`, `NVIDIA_`, `TF_`, `HB_`} {
			for _, kv := range utils.EnvWithPrefix(os.Environ(), prefix) {
				log.Debugf("[env] %s", kv)
			}
		}
	}
}

// FlagSet holds the command line of hb-run: a program followed by its arguments
type FlagSet struct {
	Prog string
	Args []string
}

func (f *FlagSet) Register(flag *flag.FlagSet) {
	flag.Usage = func() {
		flag.Output().Write([]byte("usage: " + flag.Name() + " <command> [args...]\n"))
	}
}

var errMissingProgramName = errors.New("missing program name")

func (f *FlagSet) Parse(args []string) error {
	if len(args) < 1 {
		return errMissingProgramName
	}
	commandLine := flag.NewFlagSet(args[0], flag.ContinueOnError)
	f.Register(commandLine)
	if err := commandLine.Parse(args[1:]); err != nil {
		return err
	}
	args = commandLine.Args()
	if len(args) < 1 {
		return errMissingProgramName
	}
	f.Prog = args[0]
	f.Args = args[1:]
	return nil
}
