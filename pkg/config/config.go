// Package config loads the vLLM server launch configuration from a YAML
// file into typed, read-only accessors.
//
// Loading is strict: every required key must be present or Load fails with
// field-path errors, so missing keys surface at construction rather than on
// first access. The loaded Config is immutable; re-reading the file means
// calling Load again.
package config

import "fmt"

// Config holds the vLLM server configuration. All fields are populated and
// validated by Load; the struct is read-only afterwards.
type Config struct {
	server serverSection
	gpu    gpuSection
}

type serverSection struct {
	Port  int
	Host  string
	Model string
}

type gpuSection struct {
	MemoryUtilization  float64
	MaxModelLen        int
	TensorParallelSize int
}

// ServerPort returns the server listen port.
func (c *Config) ServerPort() int {
	return c.server.Port
}

// ServerHost returns the server bind host.
func (c *Config) ServerHost() string {
	return c.server.Host
}

// ModelName returns the model name or path the server should load.
func (c *Config) ModelName() string {
	return c.server.Model
}

// ServerURL returns the client-facing base URL. The server is reached
// through a local tunnel, so the URL always points at localhost regardless
// of the configured bind host.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("http://localhost:%d/v1", c.server.Port)
}

// MemoryUtilization returns the GPU memory utilization fraction.
func (c *Config) MemoryUtilization() float64 {
	return c.gpu.MemoryUtilization
}

// MaxModelLen returns the maximum model context length.
func (c *Config) MaxModelLen() int {
	return c.gpu.MaxModelLen
}

// TensorParallelSize returns the tensor parallel size.
func (c *Config) TensorParallelSize() int {
	return c.gpu.TensorParallelSize
}

// LaunchArgs returns all server launch arguments as a single map, suitable
// for handing to a launcher.
func (c *Config) LaunchArgs() map[string]any {
	return map[string]any{
		"model":                  c.server.Model,
		"port":                   c.server.Port,
		"host":                   c.server.Host,
		"gpu_memory_utilization": c.gpu.MemoryUtilization,
		"max_model_len":          c.gpu.MaxModelLen,
		"tensor_parallel_size":   c.gpu.TensorParallelSize,
	}
}
