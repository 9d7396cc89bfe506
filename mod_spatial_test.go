package kajak

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

func TestQuadTree_InsertionAndQuery(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 100, 100), 0, 0)

	tree.Insert(1, geom.RectXYWH(0, 0, 1, 1))
	tree.Insert(2, geom.RectXYWH(3, 3, 1, 1))

	assert.Equal(t, []EntityID{1}, tree.Query(geom.RectXYWH(0, 0, 1, 1), 0))
	assert.Equal(t, []EntityID{2}, tree.Query(geom.RectXYWH(3, 3, 1, 1), 0))
	assert.ElementsMatch(t, []EntityID{1, 2}, tree.Query(geom.RectXYWH(1, 1, 2, 2), 0))
	assert.Empty(t, tree.Query(geom.RectXYWH(50, 50, 10, 10), 0))
}

func TestQuadTree_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	world := geom.RectXYWH(-100, -100, 200, 200)
	tree := NewQuadTree(world, 4, 8)

	randomRect := func(maxSize float64) geom.Rect {
		return geom.RectXYWH(rng.Float64()*220-110, rng.Float64()*220-110, rng.Float64()*maxSize, rng.Float64()*maxSize)
	}

	all := map[EntityID]geom.Rect{}
	for i := range 300 {
		r := randomRect(8)
		all[EntityID(i)] = r
		tree.Insert(EntityID(i), r)
	}
	require.Equal(t, 300, tree.Len())

	for range 50 {
		q := randomRect(40)
		var want []EntityID
		for id, r := range all {
			if r.Intersects(q) {
				want = append(want, id)
			}
		}
		got := tree.Query(q, 0)
		assert.ElementsMatch(t, want, got, "query %v", q)
	}
}

func TestQuadTree_OutOfWorldStaysAtRoot(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 10, 10), 1, 4)

	assert.True(t, tree.Insert(1, geom.RectXYWH(1, 1, 1, 1)))
	assert.False(t, tree.Insert(2, geom.RectXYWH(50, 50, 1, 1)))
	assert.False(t, tree.Insert(3, geom.RectXYWH(9, 9, 4, 4)))

	assert.Equal(t, []EntityID{2}, tree.Query(geom.RectXYWH(49, 49, 3, 3), 0))
	assert.ElementsMatch(t, []EntityID{3}, tree.Query(geom.RectXYWH(11, 11, 1, 1), 0))
}

func TestQuadTree_StopsSubdividingAtMinSize(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 1, 1), 1, 8)
	for i := range 10 {
		tree.Insert(EntityID(i), geom.RectXYWH(0.1, 0.1, 0.1, 0.1))
	}

	assert.Nil(t, tree.children)
	assert.Len(t, tree.Query(geom.RectXYWH(0, 0, 1, 1), 0), 10)
}

func TestQuadTree_QueryCache(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 100, 100), 4, 8)
	tree.Insert(1, geom.RectXYWH(10, 10, 2, 2))
	r := geom.RectXYWH(0, 0, 20, 20)

	first := tree.Query(r, 0)
	require.Equal(t, []EntityID{1}, first)
	assert.Contains(t, tree.cache, r)

	tree.Insert(2, geom.RectXYWH(12, 12, 2, 2))
	assert.NotContains(t, tree.cache, r)
	assert.ElementsMatch(t, []EntityID{1, 2}, tree.Query(r, QueryCacheLifetime/2))
	assert.Equal(t, QueryCacheLifetime/2, tree.cache[r].at)

	assert.ElementsMatch(t, []EntityID{1, 2}, tree.Query(r, QueryCacheLifetime))
	assert.Equal(t, QueryCacheLifetime/2, tree.cache[r].at)

	tree.Query(r, 2*QueryCacheLifetime)
	assert.Equal(t, 2*QueryCacheLifetime, tree.cache[r].at)
}

func TestQuadTree_QueryResultIsCallerOwned(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 100, 100), 4, 8)
	tree.Insert(1, geom.RectXYWH(10, 10, 2, 2))
	tree.Insert(2, geom.RectXYWH(12, 12, 2, 2))
	r := geom.RectXYWH(0, 0, 20, 20)

	first := tree.Query(r, 0)
	first[0] = 99
	_ = append(first[:1], 42)

	assert.ElementsMatch(t, []EntityID{1, 2}, tree.Query(r, 0))
	second := tree.Query(r, 0)
	second[1] = 77
	assert.ElementsMatch(t, []EntityID{1, 2}, tree.Query(r, 0))
}

func TestQuadTree_Clear(t *testing.T) {
	tree := NewQuadTree(geom.RectXYWH(0, 0, 100, 100), 1, 8)
	for i := range 20 {
		tree.Insert(EntityID(i), geom.RectXYWH(float64(i*4), float64(i*4), 1, 1))
	}
	require.NotNil(t, tree.children)

	tree.Clear()

	assert.Zero(t, tree.Len())
	assert.Nil(t, tree.children)
	assert.Empty(t, tree.Query(geom.RectXYWH(0, 0, 100, 100), 0))
}

func TestSpatialSystem_RebuildsEveryTick(t *testing.T) {
	s := newTestScene(t)
	car := addCar(s, "p1", true, 0, 0, 0)
	s.Add(rock(30, 30))

	s.Tick(tick)
	ids := s.Spatial().Query(geom.RectXYWH(-5, -5, 10, 10), s.Time().Now)
	assert.Equal(t, []EntityID{car.ID}, ids)

	car.Position = geom.Vec(30, 27)
	s.Tick(tick)
	ids = s.Spatial().Query(geom.RectXYWH(25, 25, 10, 10), s.Time().Now)
	slices.Sort(ids)
	assert.Equal(t, []EntityID{car.ID, car.ID + 1}, ids)
}
