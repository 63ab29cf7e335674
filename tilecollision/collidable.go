package tilecollision

import (
	"github.com/sirupsen/logrus"

	"github.com/milk9111/tilenav/component"
)

// CollidedFunc is notified for every category that resolved a collision
// during an update.
type CollidedFunc func(res Result, cat *Category)

// Collidable resolves a body's collision categories once per update.
type Collidable struct {
	body       component.Body
	resolver   *Resolver
	categories []*Category
	snap       bool
	listeners  []CollidedFunc
	log        logrus.FieldLogger
}

// NewCollidable binds body to resolver for the given categories. Snapping
// is enabled.
func NewCollidable(body component.Body, resolver *Resolver, categories ...*Category) *Collidable {
	return &Collidable{
		body:       body,
		resolver:   resolver,
		categories: categories,
		snap:       true,
		log:        resolver.log,
	}
}

func (c *Collidable) Body() component.Body    { return c.body }
func (c *Collidable) Categories() []*Category { return c.categories }
func (c *Collidable) SetSnap(snap bool)       { c.snap = snap }
func (c *Collidable) Snap() bool              { return c.snap }

func (c *Collidable) SetCategories(categories ...*Category) {
	c.categories = categories
}

func (c *Collidable) AddListener(f CollidedFunc) { c.listeners = append(c.listeners, f) }

// Update probes every category in order. With snapping enabled the body is
// teleported onto each collision so that later categories probe from the
// corrected position. A body that did not move is only probed by glue
// categories.
func (c *Collidable) Update() []Result {
	var results []Result
	for _, cat := range c.categories {
		if !cat.Glue && c.body.X() == c.body.OldX() && c.body.Y() == c.body.OldY() {
			continue
		}
		res, ok := c.resolver.ComputeCollision(c.body, cat)
		if !ok {
			continue
		}
		if c.snap {
			if res.X != nil {
				c.body.TeleportX(*res.X - cat.OffsetX)
			}
			if res.Y != nil {
				c.body.TeleportY(*res.Y - cat.OffsetY)
			}
		}
		c.log.WithFields(logrus.Fields{
			"category": cat.Name,
			"tile":     res.Tile.Coord(),
			"formula":  res.Formula.Name,
		}).Debug("tilecollision: collided")
		for _, l := range c.listeners {
			l(res, cat)
		}
		results = append(results, res)
	}
	return results
}
