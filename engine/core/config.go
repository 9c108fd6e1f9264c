package core

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

/** @brief Configuration of the pipeline archive loader, usually read from a .toml file. */
type LoaderConfig struct {
	/** @brief Path of the archive to open. */
	ArchivePath string `toml:"archive_path"`
	/** @brief Device the archive is unpacked for ("opengl", "gles", "d3d11", "d3d12", "vulkan", "metal_ios", "metal_macos"). */
	Device string `toml:"device"`
	/** @brief Engine log level. */
	LogLevel string `toml:"log_level"`
	/** @brief Watch the archive file and reopen it when it changes. */
	Watch bool `toml:"watch"`
	/** @brief Collapse concurrent unpacks of the same name into one device creation. */
	DeduplicateUnpack bool `toml:"deduplicate_unpack"`
	/** @brief Number of workers unpacking pipelines in parallel. */
	Workers int `toml:"workers"`

	Pipeline PipelineConfig `toml:"pipeline"`
	Bindings BindingsConfig `toml:"bindings"`
}

/** @brief Tuning values applied to every unpacked pipeline state. */
type PipelineConfig struct {
	SRBAllocationGranularity uint32 `toml:"srb_allocation_granularity"`
	ImmediateContextMask     uint64 `toml:"immediate_context_mask"`
}

/** @brief Parameters used when dumping resolved resource bindings. */
type BindingsConfig struct {
	NumRenderTargets           uint32 `toml:"num_render_targets"`
	MaxBufferFunctionArguments uint32 `toml:"max_buffer_function_arguments"`
}

func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Device:   "vulkan",
		LogLevel: "info",
		Workers:  4,
		Pipeline: PipelineConfig{
			SRBAllocationGranularity: 1,
			ImmediateContextMask:     1,
		},
		Bindings: BindingsConfig{
			MaxBufferFunctionArguments: 31,
		},
	}
}

// ParseConfig decodes TOML on top of the defaults.
func ParseConfig(data []byte) (*LoaderConfig, error) {
	cfg := DefaultLoaderConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse loader config: %w", err)
	}
	if cfg.ArchivePath == "" {
		return nil, fmt.Errorf("loader config: archive_path must not be empty")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("loader config: workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

func LoadConfig(path string) (*LoaderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}
