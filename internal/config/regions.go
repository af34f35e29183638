package config

import (
	"image"

	"github.com/BurntSushi/toml"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

// corners is a region as reported by an interactive selection tool.
type corners struct {
	Name   string `toml:"name"`
	Left   int    `toml:"left"`
	Top    int    `toml:"top"`
	Right  int    `toml:"right"`
	Bottom int    `toml:"bottom"`
}

type regionsFile struct {
	Source      *corners `toml:"source"`
	Destination *corners `toml:"destination"`
	RedROI      *corners `toml:"red_roi"`
}

// loadRegions reads the market regions and an optional red ROI from a TOML
// file. RED_ROI from the environment takes precedence.
func (c *Config) loadRegions(path string) error {
	var rf regionsFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "read regions file").WithMetadata("path", path)
	}

	if rf.Source != nil {
		r, err := rf.Source.region("source")
		if err != nil {
			return err
		}
		c.Source = r
	}
	if rf.Destination != nil {
		r, err := rf.Destination.region("destination")
		if err != nil {
			return err
		}
		c.Destination = r
	}
	if rf.RedROI != nil && c.RedROI == nil {
		roi := image.Rect(rf.RedROI.Left, rf.RedROI.Top, rf.RedROI.Right, rf.RedROI.Bottom)
		if roi.Empty() {
			return apperrors.New(apperrors.CodeConfigInvalid, "red_roi must have positive size").WithMetadata("path", path)
		}
		c.RedROI = &roi
	}
	return nil
}

func (k corners) region(defaultName string) (frame.Region, error) {
	name := k.Name
	if name == "" {
		name = defaultName
	}
	r := frame.FromCorners(name, k.Left, k.Top, k.Right, k.Bottom)
	if !r.Valid() {
		return frame.Region{}, apperrors.Newf(apperrors.CodeConfigInvalid, "%s region must have positive size", defaultName).
			WithMetadata("region", r.String())
	}
	return r, nil
}
