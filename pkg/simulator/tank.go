// Package simulator generates synthetic but physically plausible
// water-quality readings for exercising the ingestion pipeline without real
// probes attached.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"procodus.dev/aquamon/pkg/telemetry"
)

// TankProfile describes the simulated tank a generator produces data for.
type TankProfile struct {
	TankID   string `fake:"{uuid}"`
	Name     string `fake:"{word}"`
	Location string `fake:"{city}"`
	VolumeL  int    `fake:"{number:50,500}"`
}

// NewTankProfile fakes a tank profile. Returns nil when gofakeit cannot
// populate the struct.
func NewTankProfile() *TankProfile {
	var profile TankProfile
	if err := gofakeit.Struct(&profile); err != nil {
		return nil
	}
	return &profile
}

// Generator produces correlated temperature/pH/TDS series for one tank.
type Generator struct {
	baselineTemp float64
	baselinePH   float64
	baselineTDS  float64
	noise        float64
	lastTDS      float64
}

// NewGenerator seeds a generator with tropical-tank baselines.
// Note: math/rand is acceptable for simulation data.
func NewGenerator() *Generator {
	baselineTDS := 150.0 + rand.Float64()*250 // 150-400 ppm
	return &Generator{
		baselineTemp: 24.0 + rand.Float64()*4,  // 24-28°C
		baselinePH:   6.8 + rand.Float64()*0.8, // 6.8-7.6
		baselineTDS:  baselineTDS,
		noise:        rand.Float64() * 0.5,
		lastTDS:      baselineTDS,
	}
}

// Temperature follows a daily cycle peaking mid-afternoon when lights and
// room temperature are highest.
func (g *Generator) Temperature(t time.Time) float64 {
	hour := float64(t.Hour())

	dailyCycle := 1.5 * math.Sin((hour-8)*math.Pi/12)
	noise := (rand.Float64() - 0.5) * g.noise

	// Occasional heater/chiller anomalies (2% chance)
	anomaly := 0.0
	if rand.Float64() < 0.02 {
		anomaly = (rand.Float64() - 0.5) * 4
	}

	temp := g.baselineTemp + dailyCycle + noise + anomaly
	return math.Max(18, math.Min(32, temp))
}

// PH dips during the day while CO2 injection runs and recovers overnight.
func (g *Generator) PH(t time.Time) float64 {
	hour := float64(t.Hour())

	co2Dip := 0.0
	if hour >= 9 && hour <= 17 {
		co2Dip = -0.3 * math.Sin((hour-9)*math.Pi/8)
	}

	noise := (rand.Float64() - 0.5) * g.noise * 0.2

	ph := g.baselinePH + co2Dip + noise
	return math.Max(6.0, math.Min(8.5, ph))
}

// TDS random-walks upward as waste accumulates; an occasional water change
// (1% chance per reading) pulls it back toward the baseline.
func (g *Generator) TDS() float64 {
	drift := rand.Float64() * 0.8 // slow accumulation
	noise := (rand.Float64() - 0.5) * 2

	tds := g.lastTDS + drift + noise

	if rand.Float64() < 0.01 {
		tds = g.baselineTDS + (tds-g.baselineTDS)*0.5
	}

	tds = math.Max(50, math.Min(1200, tds))
	g.lastTDS = tds
	return tds
}

// Reading generates one correlated sample for time t.
func (g *Generator) Reading(t time.Time) telemetry.Reading {
	ts := t.UTC()
	return telemetry.Reading{
		Timestamp:   &ts,
		Temperature: math.Round(g.Temperature(t)*100) / 100,
		PH:          math.Round(g.PH(t)*100) / 100,
		TDSLevel:    math.Round(g.TDS()*10) / 10,
	}
}
