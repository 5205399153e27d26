package discovery

import (
	"context"
	"strings"

	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
	"ballpit/bridge/internal/world"
)

const metricDiscoveredBoxes = "discovery_boxes"

// Fetcher is the remote snapshot surface consumed by the walker.
type Fetcher interface {
	FetchSlot(ctx context.Context, id string, depth int, includeComponents bool) (*scene.SlotSnapshot, error)
}

// StaticWorld receives the box colliders discovered on the remote side.
type StaticWorld interface {
	CreateStaticBody(shape physics.Box, pose physics.Pose) physics.Handle
}

// Config selects which remote subtree is imported.
type Config struct {
	RootID      string
	NamePrefix  string
	RootDepth   int
	ExpandDepth int
}

func (c Config) normalized() Config {
	if c.RootID == "" {
		c.RootID = "Root"
	}
	if c.NamePrefix == "" {
		c.NamePrefix = "Reso"
	}
	if c.RootDepth < 1 {
		c.RootDepth = 2
	}
	if c.ExpandDepth < 1 {
		c.ExpandDepth = 16
	}
	return c
}

// Result summarises one discovery pass.
type Result struct {
	Visited int
	Boxes   int
	Skipped int
}

// Walker imports remote box colliders as local static geometry. Only the
// whitelisted subtree is visited: the root marker itself plus nodes whose
// name carries the required prefix. A failed branch truncates silently; the
// simulation starts with whatever geometry was reachable.
type Walker struct {
	fetcher Fetcher
	statics StaticWorld
	config  Config
	logger  telemetry.Logger
	metrics telemetry.Metrics
}

// NewWalker wires the walker to its snapshot source and collider sink.
func NewWalker(fetcher Fetcher, statics StaticWorld, cfg Config, logger telemetry.Logger, metrics telemetry.Metrics) *Walker {
	if fetcher == nil || statics == nil {
		return nil
	}
	return &Walker{
		fetcher: fetcher,
		statics: statics,
		config:  cfg.normalized(),
		logger:  logger,
		metrics: metrics,
	}
}

// accumulated carries the transform composed along the path from the root.
// Position accumulation deliberately multiplies by each node's scale
// component-wise instead of applying a full affine transform; the source
// scene behaves this way and imported geometry is placed at node-local
// positions regardless.
type accumulated struct {
	position world.Vec3
	rotation world.Quat
	scale    world.Vec3
}

// Run fetches the configured root and walks it. A missing or failed root
// yields an empty result, never an error.
func (w *Walker) Run(ctx context.Context) Result {
	if w == nil {
		return Result{}
	}
	var result Result
	root, err := w.fetcher.FetchSlot(ctx, w.config.RootID, w.config.RootDepth, true)
	if err != nil || root == nil {
		if w.logger != nil {
			w.logger.Printf("[discovery] root %q unavailable, starting without remote geometry: %v", w.config.RootID, err)
		}
		return result
	}

	w.visit(ctx, *root, accumulated{
		rotation: world.Identity(),
		scale:    world.One(),
	}, &result)

	if w.metrics != nil {
		w.metrics.Store(metricDiscoveredBoxes, uint64(result.Boxes))
	}
	if w.logger != nil {
		w.logger.Printf("[discovery] imported %d box colliders from %d nodes (%d branches skipped)", result.Boxes, result.Visited, result.Skipped)
	}
	return result
}

func (w *Walker) visit(ctx context.Context, node scene.SlotSnapshot, acc accumulated, result *Result) {
	if node.ID != w.config.RootID && !strings.HasPrefix(node.Name, w.config.NamePrefix) {
		return
	}

	if node.ReferenceOnly {
		full, err := w.fetcher.FetchSlot(ctx, node.ID, w.config.ExpandDepth, true)
		if err != nil || full == nil {
			result.Skipped++
			if w.logger != nil {
				w.logger.Printf("[discovery] skipping branch %q (%s): %v", node.Name, node.ID, err)
			}
			return
		}
		node = *full
	}

	if !node.Active || !node.Persistent {
		return
	}

	acc.rotation = acc.rotation.Mul(node.Rotation)
	acc.scale = acc.scale.Mul(node.Scale)
	acc.position = acc.position.Add(node.Position).Mul(node.Scale)
	result.Visited++

	for _, component := range node.Components {
		if component.Type != scene.ComponentBoxCollider {
			continue
		}
		size, ok := component.Field(scene.FieldNameSize)
		if !ok {
			continue
		}
		w.statics.CreateStaticBody(
			physics.Box{Size: size.Vector.Mul(acc.scale)},
			physics.Pose{Position: node.Position, Rotation: acc.rotation},
		)
		result.Boxes++
	}

	for _, child := range node.Children {
		w.visit(ctx, child, acc, result)
	}
}
