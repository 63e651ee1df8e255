// Package config loads optional corner-detection tuning overrides from
// a JSON file. Fields omitted from the file keep the track-type preset
// values, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lapsight-data/lapsight/internal/corners"
)

// TuningConfig overrides individual detection parameters. All fields
// are optional; nil means "keep the preset value".
type TuningConfig struct {
	SmoothingWindow   *int     `json:"smoothing_window,omitempty"`
	SmoothingOrder    *int     `json:"smoothing_order,omitempty"`
	MinSpeedDrop      *float64 `json:"min_speed_drop,omitempty"`
	MinCornerSpacing  *int     `json:"min_corner_spacing,omitempty"`
	BrakeThreshold    *float64 `json:"brake_threshold,omitempty"`
	ThrottleThreshold *float64 `json:"throttle_threshold,omitempty"`
	MergeDistance     *float64 `json:"merge_distance,omitempty"`
}

// LoadTuningConfig reads and validates a tuning file. The path must
// have a .json extension; the file is size-capped for safety.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that any set values are usable.
func (c *TuningConfig) Validate() error {
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 3 {
		return fmt.Errorf("smoothing_window must be at least 3, got %d", *c.SmoothingWindow)
	}
	if c.SmoothingOrder != nil && *c.SmoothingOrder < 1 {
		return fmt.Errorf("smoothing_order must be at least 1, got %d", *c.SmoothingOrder)
	}
	if c.SmoothingWindow != nil && c.SmoothingOrder != nil && *c.SmoothingOrder >= *c.SmoothingWindow {
		return fmt.Errorf("smoothing_order %d must be below smoothing_window %d",
			*c.SmoothingOrder, *c.SmoothingWindow)
	}
	if c.MinSpeedDrop != nil && *c.MinSpeedDrop <= 0 {
		return fmt.Errorf("min_speed_drop must be positive, got %f", *c.MinSpeedDrop)
	}
	if c.MinCornerSpacing != nil && *c.MinCornerSpacing < 1 {
		return fmt.Errorf("min_corner_spacing must be at least 1, got %d", *c.MinCornerSpacing)
	}
	if c.BrakeThreshold != nil && (*c.BrakeThreshold < 0 || *c.BrakeThreshold > 1) {
		return fmt.Errorf("brake_threshold must be between 0 and 1, got %f", *c.BrakeThreshold)
	}
	if c.ThrottleThreshold != nil && (*c.ThrottleThreshold < 0 || *c.ThrottleThreshold > 1) {
		return fmt.Errorf("throttle_threshold must be between 0 and 1, got %f", *c.ThrottleThreshold)
	}
	if c.MergeDistance != nil && *c.MergeDistance < 0 {
		return fmt.Errorf("merge_distance must be non-negative, got %f", *c.MergeDistance)
	}
	return nil
}

// Apply layers the overrides onto a preset parameter set.
func (c *TuningConfig) Apply(base corners.DetectionParams) corners.DetectionParams {
	if c.SmoothingWindow != nil {
		base.SmoothingWindow = *c.SmoothingWindow
	}
	if c.SmoothingOrder != nil {
		base.SmoothingOrder = *c.SmoothingOrder
	}
	if c.MinSpeedDrop != nil {
		base.MinSpeedDrop = *c.MinSpeedDrop
	}
	if c.MinCornerSpacing != nil {
		base.MinCornerSpacing = *c.MinCornerSpacing
	}
	if c.BrakeThreshold != nil {
		base.BrakeThreshold = *c.BrakeThreshold
	}
	if c.ThrottleThreshold != nil {
		base.ThrottleThreshold = *c.ThrottleThreshold
	}
	if c.MergeDistance != nil {
		base.MergeDistance = *c.MergeDistance
	}
	return base
}
