// Package dispatch stands in for the GPU's 8x8 compute-tile thread-group
// scheduler (spec.md §5): it partitions a pass's pixel domain into tiles,
// fans each tile out onto a worker pool, and joins before the next pass's
// barrier — mirroring the teacher's tile-based worker pool, but rebuilt
// on alitto/pond's typed task groups instead of a hand-rolled channel
// pool, and joined by waiting on the pass's pond task group.
package dispatch

import (
	"context"
	"runtime"

	"github.com/alitto/pond/v2"
)

// TileSize is the compute-tile edge length spec.md §5 specifies: "GPU
// compute dispatches over 8x8 thread tiles."
const TileSize = 8

// Tile is one 8x8 (or smaller, at the domain edges) pixel region.
type Tile struct {
	X0, Y0, X1, Y1 int
}

// Width returns the tile's pixel width.
func (t Tile) Width() int { return t.X1 - t.X0 }

// Height returns the tile's pixel height.
func (t Tile) Height() int { return t.Y1 - t.Y0 }

// Tiles partitions a width x height pixel domain into TileSize x TileSize
// tiles, left-to-right, top-to-bottom.
func Tiles(width, height int) []Tile {
	var tiles []Tile
	for y := 0; y < height; y += TileSize {
		for x := 0; x < width; x += TileSize {
			tiles = append(tiles, Tile{
				X0: x, Y0: y,
				X1: min(x+TileSize, width),
				Y1: min(y+TileSize, height),
			})
		}
	}
	return tiles
}

// Pool fans per-pixel work out across tiles. Each thread (goroutine) in
// spec.md's model owns its pixel's outputs exclusively, so tiles never
// need to coordinate with each other — only join before the next pass.
type Pool struct {
	pool pond.Pool
}

// New builds a dispatch pool sized to the host's CPU count, standing in
// for however many compute units the real GPU's scheduler would occupy.
func New() *Pool {
	return &Pool{pool: pond.NewPool(runtime.NumCPU())}
}

// RunPass dispatches fn once per tile across the pool and blocks until
// every tile completes — the compute-pass barrier spec.md §5 describes
// ("the host issues a command-buffer ordering that makes each pass's
// writes visible to the next pass's reads").
func (p *Pool) RunPass(ctx context.Context, width, height int, fn func(tile Tile)) error {
	group := p.pool.NewGroupContext(ctx)
	for _, tile := range Tiles(width, height) {
		tile := tile
		group.SubmitErr(func() error {
			fn(tile)
			return ctx.Err()
		})
	}
	return group.Wait()
}

// Release tears down the underlying worker pool.
func (p *Pool) Release() {
	p.pool.StopAndWait()
}
