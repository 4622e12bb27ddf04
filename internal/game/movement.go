package game

import (
	"container/heap"

	"hexfront/pkg/hexgrid"
)

// MovementRange maps each coordinate a unit can move to this turn to
// the minimum cost of reaching it. The start hex is never a key.
type MovementRange map[hexgrid.Coord]int

// occupancy indexes units by coordinate for one range computation.
type occupancy map[hexgrid.Coord][]*Unit

func buildOccupancy(units []*Unit) occupancy {
	occ := make(occupancy, len(units))
	for _, u := range units {
		occ[u.Coord] = append(occ[u.Coord], u)
	}
	return occ
}

// enemyAt reports whether any unit at c belongs to the side opposing
// mover. Friendly units do not block movement; stacking is allowed.
func (o occupancy) enemyAt(c hexgrid.Coord, mover Side) bool {
	for _, u := range o[c] {
		if u.Side != mover {
			return true
		}
	}
	return false
}

// entryCost computes the cost of moving into dst across the edge
// identified by entrySide (dst's side facing the mover) and exitSide
// (the mover's side facing dst). src may be nil when the source hex is
// unknown. The bool result is false when the edge cannot be crossed.
//
// Rules, in priority order: water is impassable; a road on the edge
// costs exactly 1 regardless of terrain or rivers; otherwise the
// terrain's base cost applies, plus the branch's river surcharge when
// the edge carries a river. Roads and rivers are read from whichever
// hex reports them, since the duplicated edge masks can disagree.
func entryCost(dst *Hex, entrySide hexgrid.Side, src *Hex, exitSide hexgrid.Side, branch Branch) (int, bool) {
	if !dst.Terrain.Passable() {
		return 0, false
	}
	if dst.Roads.Has(entrySide) || (src != nil && src.Roads.Has(exitSide)) {
		return 1, true
	}
	cost := dst.Terrain.MoveCost()
	if dst.Rivers.Has(entrySide) || (src != nil && src.Rivers.Has(exitSide)) {
		cost += branch.RiverCrossCost()
	}
	return cost, true
}

// mustStop reports whether a unit standing at c has to halt there.
// A node halts movement when any neighbor is enemy-occupied and no
// river separates the two hexes. The river check reads c's own mask
// on the side facing the enemy; an enemy across a river exerts no
// stopping power.
func mustStop(b *Board, occ occupancy, c hexgrid.Coord, mover Side) bool {
	h := b.HexAt(c)
	for _, s := range hexgrid.Sides {
		if !occ.enemyAt(hexgrid.Neighbor(c, s), mover) {
			continue
		}
		if h == nil || !h.Rivers.Has(s) {
			return true
		}
	}
	return false
}

// rangeNode is a priority-queue entry for the range solver.
type rangeNode struct {
	coord hexgrid.Coord
	cost  int
}

// rangePQ is a min-heap of rangeNodes ordered by cost. Stale entries
// are left in the heap and skipped on pop (lazy deletion).
type rangePQ []*rangeNode

func (q rangePQ) Len() int           { return len(q) }
func (q rangePQ) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q rangePQ) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *rangePQ) Push(x any)        { *q = append(*q, x.(*rangeNode)) }
func (q *rangePQ) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// ComputeMovementRange returns every hex the mover can legally reach
// from start within the given allowance, with the minimum cost to
// enter each one. It is a pure function of its inputs: the board and
// units are never mutated, and identical inputs produce identical
// output, so concurrent calls need no synchronization.
//
// The expansion is a shortest-path search over the hex adjacency
// graph. Enemy-occupied hexes are never entered. A hex adjacent to an
// unseparated enemy is reachable but ends movement there (see
// mustStop); the rule applies to the start hex as well, so a pinned
// unit expands nothing. If the solve yields no destination at all and
// the unit has at least one movement point, the first passable,
// unoccupied-by-enemy neighbor in side order is granted even when its
// cost exceeds the allowance, so no unit with movement points is ever
// frozen in place by expensive terrain.
//
// The caller is responsible for supplying an in-bounds start hex that
// exists on the board; the start is not validated and the result for
// any other start is unspecified.
func ComputeMovementRange(b *Board, units []*Unit, start hexgrid.Coord, allowance int, branch Branch, mover Side) MovementRange {
	out := make(MovementRange)
	occ := buildOccupancy(units)

	best := map[hexgrid.Coord]int{start: 0}
	done := make(map[hexgrid.Coord]bool)

	pq := &rangePQ{{coord: start, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		node := heap.Pop(pq).(*rangeNode)
		if done[node.coord] {
			continue
		}
		done[node.coord] = true

		if node.coord != start {
			out[node.coord] = node.cost
		}
		if mustStop(b, occ, node.coord, mover) {
			continue
		}

		cur := b.HexAt(node.coord)
		for _, s := range hexgrid.Sides {
			nc := hexgrid.Neighbor(node.coord, s)
			if !b.InBounds(nc) || done[nc] {
				continue
			}
			if occ.enemyAt(nc, mover) {
				continue
			}
			dst := b.HexAt(nc)
			if dst == nil {
				continue
			}
			step, ok := entryCost(dst, hexgrid.Opposite(s), cur, s, branch)
			if !ok {
				continue
			}
			candidate := node.cost + step
			if candidate > allowance {
				continue
			}
			if prev, seen := best[nc]; seen && prev <= candidate {
				continue
			}
			best[nc] = candidate
			heap.Push(pq, &rangeNode{coord: nc, cost: candidate})
		}
	}

	if len(out) == 0 && allowance >= 1 {
		if c, cost, ok := firstEscape(b, occ, start, branch, mover); ok {
			out[c] = cost
		}
	}

	return out
}

// firstEscape scans the neighbors of start in canonical side order and
// returns the first one a unit could physically enter, at its computed
// cost. The side order is observable behavior: allowance-starved units
// always receive the same single destination for the same board.
func firstEscape(b *Board, occ occupancy, start hexgrid.Coord, branch Branch, mover Side) (hexgrid.Coord, int, bool) {
	cur := b.HexAt(start)
	for _, s := range hexgrid.Sides {
		nc := hexgrid.Neighbor(start, s)
		if !b.InBounds(nc) {
			continue
		}
		if occ.enemyAt(nc, mover) {
			continue
		}
		dst := b.HexAt(nc)
		if dst == nil {
			continue
		}
		cost, ok := entryCost(dst, hexgrid.Opposite(s), cur, s, branch)
		if !ok {
			continue
		}
		return nc, cost, true
	}
	return hexgrid.Coord{}, 0, false
}
