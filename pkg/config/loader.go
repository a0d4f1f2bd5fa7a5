package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name used when no path is given.
const DefaultConfigFile = "vllm_config.yaml"

// rawConfig mirrors the YAML document with pointer fields so that missing
// keys are distinguishable from zero values during validation.
type rawConfig struct {
	Server struct {
		Port  *int    `yaml:"port"`
		Host  *string `yaml:"host"`
		Model *string `yaml:"model"`
	} `yaml:"server"`
	GPU struct {
		MemoryUtilization  *float64 `yaml:"memory_utilization"`
		MaxModelLen        *int     `yaml:"max_model_len"`
		TensorParallelSize *int     `yaml:"tensor_parallel_size"`
	} `yaml:"gpu"`
}

// Load reads and validates the configuration file at path.
//
// An empty path triggers discovery: the VLLM_CONFIG environment variable,
// then ./vllm_config.yaml. A missing file yields an error naming the
// attempted path and suggesting to copy the shipped example; invalid YAML
// yields a wrapped parse error; missing required keys yield field-path
// errors collected with errors.Join.
func Load(path string) (*Config, error) {
	if path == "" {
		path = discoverConfigFile()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf(
				"configuration file not found: %s\ncreate it from the example:\n  cp vllm_config.example.yaml %s\n  # then edit %s with your settings",
				path, path, path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := raw.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &Config{
		server: serverSection{
			Port:  *raw.Server.Port,
			Host:  *raw.Server.Host,
			Model: *raw.Server.Model,
		},
		gpu: gpuSection{
			MemoryUtilization:  *raw.GPU.MemoryUtilization,
			MaxModelLen:        *raw.GPU.MaxModelLen,
			TensorParallelSize: *raw.GPU.TensorParallelSize,
		},
	}, nil
}

// discoverConfigFile finds the config file path: VLLM_CONFIG env var first,
// then the default file name in the current directory.
func discoverConfigFile() string {
	if envPath := os.Getenv("VLLM_CONFIG"); envPath != "" {
		return envPath
	}
	return DefaultConfigFile
}

// validate checks that every required key is present.
func (r *rawConfig) validate() error {
	var errs []error

	if r.Server.Port == nil {
		errs = append(errs, fmt.Errorf("server.port is required"))
	}
	if r.Server.Host == nil {
		errs = append(errs, fmt.Errorf("server.host is required"))
	}
	if r.Server.Model == nil {
		errs = append(errs, fmt.Errorf("server.model is required"))
	}
	if r.GPU.MemoryUtilization == nil {
		errs = append(errs, fmt.Errorf("gpu.memory_utilization is required"))
	}
	if r.GPU.MaxModelLen == nil {
		errs = append(errs, fmt.Errorf("gpu.max_model_len is required"))
	}
	if r.GPU.TensorParallelSize == nil {
		errs = append(errs, fmt.Errorf("gpu.tensor_parallel_size is required"))
	}

	return errors.Join(errs...)
}
