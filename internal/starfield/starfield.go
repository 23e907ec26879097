// Package starfield generates the space backdrop: stars clustered into
// bands by Perlin noise on a far shell, and a dust field filling a cube
// around the origin. Generation is pure math so it runs headless; the
// caller turns the output into meshes.
package starfield

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	perlinAlpha      = 2
	perlinBeta       = 2
	perlinIterations = 3
)

// Star is one generated star on the shell.
type Star struct {
	Position   mgl32.Vec3
	Brightness float32
}

// Config tunes the generator. Zero values fall back to the defaults in
// applyDefaults.
type Config struct {
	Seed int64

	StarCount int
	// Radius is the shell distance the stars sit on; keep it inside the
	// far plane.
	Radius float32
	// Density in [0,1] biases how much of the noise field accepts
	// stars. Lower values produce sparser, more banded skies.
	Density float64

	DustCount  int
	DustExtent float32
}

func (c *Config) applyDefaults() {
	if c.StarCount == 0 {
		c.StarCount = 3000
	}
	if c.Radius == 0 {
		c.Radius = 4000
	}
	if c.Density == 0 {
		c.Density = 0.55
	}
	if c.DustCount == 0 {
		c.DustCount = 600
	}
	if c.DustExtent == 0 {
		c.DustExtent = 500
	}
}

// Stars samples random directions and keeps the ones the noise field
// accepts, so stars form bands and clusters instead of uniform salt.
// Deterministic for a given seed.
func Stars(config Config) []Star {
	config.applyDefaults()
	rng := rand.New(rand.NewSource(config.Seed))
	noise := perlin.NewPerlinRandSource(perlinAlpha, perlinBeta, perlinIterations,
		rand.NewSource(config.Seed))

	stars := make([]Star, 0, config.StarCount)
	for len(stars) < config.StarCount {
		dir := randomDirection(rng)
		// Perlin output is roughly [-1,1]; shift into [0,1] and gate
		// against the configured density.
		n := noise.Noise3D(float64(dir[0])*2, float64(dir[1])*2, float64(dir[2])*2)
		acceptance := (n + 1) / 2
		if rng.Float64()*acceptance < (1-config.Density)/2 {
			continue
		}
		brightness := float32(0.3 + 0.7*rng.Float64())
		stars = append(stars, Star{
			Position:   dir.Mul(config.Radius),
			Brightness: brightness,
		})
	}
	return stars
}

// DustPositions fills a cube of half-extent DustExtent with uniformly
// random points; the point-cloud shader wraps them around the camera.
func DustPositions(config Config) []mgl32.Vec3 {
	config.applyDefaults()
	rng := rand.New(rand.NewSource(config.Seed + 1))

	points := make([]mgl32.Vec3, config.DustCount)
	for i := range points {
		points[i] = mgl32.Vec3{
			(rng.Float32()*2 - 1) * config.DustExtent,
			(rng.Float32()*2 - 1) * config.DustExtent,
			(rng.Float32()*2 - 1) * config.DustExtent,
		}
	}
	return points
}

// randomDirection draws a uniformly distributed unit vector.
func randomDirection(rng *rand.Rand) mgl32.Vec3 {
	z := rng.Float64()*2 - 1
	phi := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return mgl32.Vec3{
		float32(r * math.Cos(phi)),
		float32(r * math.Sin(phi)),
		float32(z),
	}
}
