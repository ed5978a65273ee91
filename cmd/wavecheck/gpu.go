//go:build !nogpu

package main

import _ "github.com/gogpu/wavecheck/gpu" // register the vulkan backend
