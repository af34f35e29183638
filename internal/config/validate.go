package config

import (
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// ValidateClick checks the settings used by the click-triggered monitor.
func (c *Config) ValidateClick() error {
	if c.ClicksPerShot < 1 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "CLICKS_PER_SHOT must be at least 1, got %d", c.ClicksPerShot)
	}
	if c.RedPixelThreshold < 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "RED_PIXEL_THRESHOLD must not be negative, got %d", c.RedPixelThreshold)
	}
	// A zero threshold would fire on the first sample, whose score is always 0.
	if c.ChangeThreshold <= 0 || c.ChangeThreshold > 1 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "CHANGE_THRESHOLD must be in (0,1], got %g", c.ChangeThreshold)
	}
	if !c.CaptureRegion.Valid() {
		return apperrors.New(apperrors.CodeConfigInvalid, "CAPTURE_REGION must have positive size")
	}
	switch c.ClickSource {
	case ClickSourceHook, ClickSourceStdin:
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "CLICK_SOURCE must be %q or %q, got %q", ClickSourceHook, ClickSourceStdin, c.ClickSource)
	}
	return c.validateOCR()
}

// ValidateMarket checks the settings used by the arbitrage monitor.
func (c *Config) ValidateMarket() error {
	if c.Source.ID == "" || c.Destination.ID == "" {
		return apperrors.New(apperrors.CodeConfigMissing, "source and destination regions are required (REGIONS_FILE)")
	}
	if !c.Source.Valid() || !c.Destination.Valid() {
		return apperrors.New(apperrors.CodeConfigInvalid, "market regions must have positive size")
	}
	if c.Source.ID == c.Destination.ID {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "source and destination need distinct names, both are %q", c.Source.ID)
	}
	if c.PollInterval <= 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "FEE_RATE must be in [0,1), got %g", c.FeeRate)
	}
	if c.MinProfit < 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "MIN_PROFIT must not be negative, got %g", c.MinProfit)
	}
	return c.validateOCR()
}

// ValidateRelay checks the relay server settings.
func (c *Config) ValidateRelay() error {
	if c.HTTPAddr == "" {
		return apperrors.New(apperrors.CodeConfigMissing, "HTTP_ADDR is required")
	}
	if c.RelayHistory < 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "RELAY_HISTORY must not be negative, got %d", c.RelayHistory)
	}
	return nil
}

func (c *Config) validateOCR() error {
	switch c.OCREngine {
	case EngineGRPC:
		if c.OCRAddr == "" {
			return apperrors.New(apperrors.CodeConfigMissing, "OCR_ADDR is required for the grpc engine")
		}
	case EngineTesseract:
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "OCR_ENGINE must be %q or %q, got %q", EngineGRPC, EngineTesseract, c.OCREngine)
	}
	switch c.OCRGate {
	case GateOff, GateExact, GatePerceptual:
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "OCR_GATE must be %q, %q or %q, got %q", GateOff, GateExact, GatePerceptual, c.OCRGate)
	}
	return nil
}
