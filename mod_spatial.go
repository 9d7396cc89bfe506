package kajak

import (
	"slices"
	"time"

	"github.com/kajakengine/kajak/geom"
)

const (
	DefaultQuadCapacity = 4
	DefaultQuadMaxDepth = 8
	// QuadMinNodeSize stops subdivision once a node is this small.
	QuadMinNodeSize = 1.0
	// QueryCacheLifetime is how long a node reuses the result of an identical query.
	QueryCacheLifetime = 16 * time.Millisecond
)

// DefaultWorld covers the largest bundled tracks.
var DefaultWorld = geom.RectXYWH(-1000, -1000, 2000, 2000)

type quadEntry struct {
	id     EntityID
	bounds geom.Rect
}

type cachedQuery struct {
	ids []EntityID
	at  time.Duration
}

// QuadTree is the broad phase. It is rebuilt from scratch every tick.
type QuadTree struct {
	boundary geom.Rect
	capacity int
	maxDepth int
	depth    int
	entries  []quadEntry
	children *[4]QuadTree
	cache    map[geom.Rect]cachedQuery
}

func NewQuadTree(boundary geom.Rect, capacity, maxDepth int) *QuadTree {
	if capacity <= 0 {
		capacity = DefaultQuadCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultQuadMaxDepth
	}
	return &QuadTree{
		boundary: boundary,
		capacity: capacity,
		maxDepth: maxDepth,
	}
}

func (q *QuadTree) Boundary() geom.Rect { return q.boundary }

// Clear drops every entry and collapses all subdivisions.
func (q *QuadTree) Clear() {
	q.entries = q.entries[:0]
	q.children = nil
	clear(q.cache)
}

// Len counts the entries stored in the whole tree.
func (q *QuadTree) Len() int {
	n := len(q.entries)
	if q.children != nil {
		for i := range q.children {
			n += q.children[i].Len()
		}
	}
	return n
}

func (q *QuadTree) canSubdivide() bool {
	return q.depth < q.maxDepth &&
		q.boundary.Width() > QuadMinNodeSize &&
		q.boundary.Height() > QuadMinNodeSize
}

func (q *QuadTree) subdivide() {
	quads := q.boundary.Quadrants()
	var children [4]QuadTree
	for i, r := range quads {
		children[i] = QuadTree{
			boundary: r,
			capacity: q.capacity,
			maxDepth: q.maxDepth,
			depth:    q.depth + 1,
		}
	}
	q.children = &children
}

// Insert stores id with its bounds. Entries that straddle child quadrants stay
// at the deepest node that fully contains them; entries outside the world are
// kept at the root and Insert reports false for them.
func (q *QuadTree) Insert(id EntityID, bounds geom.Rect) bool {
	if !q.boundary.Contains(bounds) {
		q.add(quadEntry{id: id, bounds: bounds})
		return false
	}
	q.insert(quadEntry{id: id, bounds: bounds})
	return true
}

func (q *QuadTree) add(e quadEntry) {
	q.entries = append(q.entries, e)
	clear(q.cache)
}

func (q *QuadTree) insert(e quadEntry) {
	clear(q.cache)
	if q.children == nil {
		if len(q.entries) < q.capacity || !q.canSubdivide() {
			q.entries = append(q.entries, e)
			return
		}
		q.subdivide()
		kept := q.entries[:0]
		for _, old := range q.entries {
			if !q.pushDown(old) {
				kept = append(kept, old)
			}
		}
		q.entries = kept
	}
	if !q.pushDown(e) {
		q.entries = append(q.entries, e)
	}
}

func (q *QuadTree) pushDown(e quadEntry) bool {
	for i := range q.children {
		c := &q.children[i]
		if c.boundary.Contains(e.bounds) {
			c.insert(e)
			return true
		}
	}
	return false
}

// Query returns every entry whose bounds intersect r. Identical queries within
// QueryCacheLifetime of simulation time reuse the previous result until the
// next insert. The returned slice belongs to the caller.
func (q *QuadTree) Query(r geom.Rect, now time.Duration) []EntityID {
	if c, ok := q.cache[r]; ok && now-c.at < QueryCacheLifetime {
		return slices.Clone(c.ids)
	}
	found := q.query(r, nil)
	if q.cache == nil {
		q.cache = make(map[geom.Rect]cachedQuery)
	}
	q.cache[r] = cachedQuery{ids: found, at: now}
	return slices.Clone(found)
}

func (q *QuadTree) query(r geom.Rect, found []EntityID) []EntityID {
	for _, e := range q.entries {
		if e.bounds.Intersects(r) {
			found = append(found, e.id)
		}
	}
	if q.children == nil {
		return found
	}
	for i := range q.children {
		c := &q.children[i]
		if c.boundary.Intersects(r) {
			found = c.query(r, found)
		}
	}
	return found
}

type SpatialModule struct {
	World    geom.Rect
	Capacity int
	MaxDepth int
}

func (m SpatialModule) Install(s *Scene, cmd *Commands) {
	world := m.World
	if world.Width() <= 0 || world.Height() <= 0 {
		world = DefaultWorld
	}
	cmd.AddResources(NewQuadTree(world, m.Capacity, m.MaxDepth))
	cmd.UseSystem(System(spatialSystem).InStage(Broadphase))
}

func spatialSystem(s *Scene, tree *QuadTree) {
	tree.Clear()
	for _, e := range s.Entities() {
		if e.Collider == nil {
			continue
		}
		e.SyncCollider()
		tree.Insert(e.ID, e.Collider.Bounds())
	}
}
