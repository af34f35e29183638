// Package publish delivers alert and opportunity payloads to external sinks.
package publish

import (
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/alert"
	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	"github.com/GriffinCanCode/screenwatch/internal/features"
)

// Payload types.
const (
	TypeScreenAlert = "screen_alert"
	ItemIDPrefix    = "SCREEN_"
)

// TimeFormat is used for every timestamp in payloads.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Color is the wire form of a dominant color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ScreenAlert is posted when a visual alert fires.
type ScreenAlert struct {
	Type          string   `json:"type"`
	TS            string   `json:"ts"`
	Filename      string   `json:"filename,omitempty"`
	Region        string   `json:"region"`
	DominantColor Color    `json:"dominant_color"`
	OCR           string   `json:"ocr"`
	RedPixels     int      `json:"red_pixels"`
	ChangeScore   float64  `json:"change_score"`
	Reasons       []string `json:"reasons"`
}

// NewScreenAlert builds the alert payload for one sample.
func NewScreenAlert(region, filename string, fs features.FeatureSet, d alert.Decision, ts time.Time) ScreenAlert {
	return ScreenAlert{
		Type:          TypeScreenAlert,
		TS:            ts.UTC().Format(TimeFormat),
		Filename:      filename,
		Region:        region,
		DominantColor: Color{R: fs.DominantColor.R, G: fs.DominantColor.G, B: fs.DominantColor.B},
		OCR:           fs.OCR.Display(),
		RedPixels:     fs.RedPixels,
		ChangeScore:   fs.ChangeScore,
		Reasons:       d.Reasons,
	}
}

// Opportunity is the wire form of arbitrage.Opportunity. Profit is truncated
// to whole units.
type Opportunity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	From   string `json:"from"`
	To     string `json:"to"`
	Buy    int    `json:"buy"`
	Sell   int    `json:"sell"`
	Profit int64  `json:"profit"`
	TS     string `json:"ts"`
}

// PriceUpdate is posted for each emitted opportunity. Prices maps region to
// side ("sell" in the buying market, "buy" in the selling market) to price.
type PriceUpdate struct {
	ItemID      string                    `json:"itemId"`
	Region      []string                  `json:"region"`
	Prices      map[string]map[string]int `json:"prices"`
	Opportunity *Opportunity              `json:"opportunity,omitempty"`
}

// NewPriceUpdate builds the payload for o.
func NewPriceUpdate(o arbitrage.Opportunity) PriceUpdate {
	return PriceUpdate{
		ItemID: ItemIDPrefix + o.Item,
		Region: []string{o.From, o.To},
		Prices: map[string]map[string]int{
			o.From: {"sell": o.Buy},
			o.To:   {"buy": o.Sell},
		},
		Opportunity: &Opportunity{
			ID:     o.ID,
			Name:   o.Item,
			From:   o.From,
			To:     o.To,
			Buy:    o.Buy,
			Sell:   o.Sell,
			Profit: o.Profit.IntPart(),
			TS:     o.DetectedAt.UTC().Format(TimeFormat),
		},
	}
}
