package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EnvWithPrefix(t *testing.T) {
	environ := []string{`TF_CONFIG={}`, `PATH=/bin`, `CUDA_VISIBLE_DEVICES=0,1`, `CUDA_HOME=/usr/local/cuda`}
	assert.Equal(t, []string{`CUDA_HOME=/usr/local/cuda`, `CUDA_VISIBLE_DEVICES=0,1`}, EnvWithPrefix(environ, `CUDA_`))
	assert.Empty(t, EnvWithPrefix(environ, `HB_`))
}

func Test_Pluralize(t *testing.T) {
	assert.Equal(t, "1 device", Pluralize(1, "device", "devices"))
	assert.Equal(t, "3 devices", Pluralize(3, "device", "devices"))
}
