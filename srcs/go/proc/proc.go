package proc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Envs is an overlay of environment variables, it never aliases the process environment
type Envs map[string]string

func (e Envs) Clone() Envs {
	f := make(Envs, len(e))
	for k, v := range e {
		f[k] = v
	}
	return f
}

func (e Envs) Keys() []string {
	var ks []string
	for k := range e {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Environ returns the KEY=VALUE form sorted by key
func (e Envs) Environ() []string {
	var kvs []string
	for _, k := range e.Keys() {
		kvs = append(kvs, k+"="+e[k])
	}
	return kvs
}

func Merge(e, f Envs) Envs {
	g := make(Envs)
	for k, v := range e {
		g[k] = v
	}
	for k, v := range f {
		g[k] = v
	}
	return g
}

// Proc represents a general purpose process
type Proc struct {
	Name string
	Prog string
	Args []string
	Envs Envs
}

// CmdContext creates a command that inherits the current environment updated by p.Envs
func (p Proc) CmdContext(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Prog, p.Args...)
	cmd.Env = updatedEnv(p.Envs)
	return cmd
}

// Environ is the full environment the process would observe
func (p Proc) Environ() Envs {
	return Merge(parseEnv(os.Environ()), p.Envs)
}

func (p Proc) Script() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "env \\\n")
	for _, k := range p.Envs.Keys() {
		fmt.Fprintf(buf, "\t%s=%q \\\n", k, p.Envs[k])
	}
	fmt.Fprintf(buf, "\t%s \\\n", p.Prog)
	for _, a := range p.Args {
		fmt.Fprintf(buf, "\t%s \\\n", a)
	}
	fmt.Fprintf(buf, "\n")
	return buf.String()
}

func updatedEnv(newValues Envs) []string {
	return updatedEnvFrom(newValues, os.Environ())
}

func updatedEnvFrom(newValues Envs, oldEnvs []string) []string {
	return Merge(parseEnv(oldEnvs), newValues).Environ()
}

func parseEnv(envs []string) Envs {
	envMap := make(Envs)
	for _, kv := range envs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	return envMap
}
