package services

import (
	"sort"
	"sync"
	"time"

	"github.com/canteenhq/canteen-api/models"
)

// Lap is a kitchen production batch: an immutable snapshot of the order ids
// that were unbatched at the moment staff declared it. Item totals are never
// stored on the lap; they are recomputed from the live order set on every
// read, so orders that leave the kitchen silently drop out of their lap's
// displayed contents.
type Lap struct {
	Number         int       `json:"number"`
	MemberOrderIDs []uint    `json:"member_order_ids"`
	DeclaredAt     time.Time `json:"declared_at"`
}

// ItemCount is one line of an aggregated kitchen summary
type ItemCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CurrentItems aggregates the items of every active order that is not a
// member of any declared lap, summed per item name and sorted by quantity
// descending (ties keep first-occurrence order).
func CurrentItems(active []models.Order, laps []Lap) []ItemCount {
	lapped := make(map[uint]bool)
	for _, lap := range laps {
		for _, id := range lap.MemberOrderIDs {
			lapped[id] = true
		}
	}

	unlapped := make([]models.Order, 0, len(active))
	for _, order := range active {
		if !lapped[order.ID] {
			unlapped = append(unlapped, order)
		}
	}
	return aggregateItems(unlapped)
}

// LapItems aggregates the items of the lap's member orders that are still in
// the active set. An empty result means the lap is fully completed.
func LapItems(lap Lap, active []models.Order) []ItemCount {
	members := make(map[uint]bool, len(lap.MemberOrderIDs))
	for _, id := range lap.MemberOrderIDs {
		members[id] = true
	}

	remaining := make([]models.Order, 0, len(lap.MemberOrderIDs))
	for _, order := range active {
		if members[order.ID] {
			remaining = append(remaining, order)
		}
	}
	return aggregateItems(remaining)
}

// DeclareLap snapshots the currently unbatched order ids into a new lap with
// the next sequential number. Declaring with nothing unbatched is rejected.
func DeclareLap(active []models.Order, laps []Lap) (Lap, error) {
	lapped := make(map[uint]bool)
	for _, lap := range laps {
		for _, id := range lap.MemberOrderIDs {
			lapped[id] = true
		}
	}

	var memberIDs []uint
	for _, order := range active {
		if !lapped[order.ID] {
			memberIDs = append(memberIDs, order.ID)
		}
	}
	if len(memberIDs) == 0 {
		return Lap{}, ErrEmptyLap
	}

	return Lap{
		Number:         len(laps) + 1,
		MemberOrderIDs: memberIDs,
		DeclaredAt:     time.Now(),
	}, nil
}

// aggregateItems sums quantities per item name. Output order: quantity
// descending, ties broken by the first occurrence across the given orders.
func aggregateItems(orders []models.Order) []ItemCount {
	index := make(map[string]int)
	counts := []ItemCount{}
	for _, order := range orders {
		for _, item := range order.Items {
			if pos, ok := index[item.Name]; ok {
				counts[pos].Quantity += item.Quantity
			} else {
				index[item.Name] = len(counts)
				counts = append(counts, ItemCount{Name: item.Name, Quantity: item.Quantity})
			}
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Quantity > counts[j].Quantity
	})
	return counts
}

// LapBoard holds one terminal session's declared laps. Boards are purely
// in-memory and die with the process: lap partitions are terminal-local by
// design, so two kitchen terminals may hold divergent batch boundaries.
type LapBoard struct {
	mu   sync.Mutex
	laps []Lap
}

// Laps returns a copy of the declared laps in declaration order
func (b *LapBoard) Laps() []Lap {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Lap, len(b.laps))
	copy(out, b.laps)
	return out
}

// Declare snapshots the unbatched subset of active into a new lap on this board
func (b *LapBoard) Declare(active []models.Order) (Lap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lap, err := DeclareLap(active, b.laps)
	if err != nil {
		return Lap{}, err
	}
	b.laps = append(b.laps, lap)
	return lap, nil
}

// BoardRegistry maps terminal session ids to their lap boards
type BoardRegistry struct {
	mu     sync.Mutex
	boards map[string]*LapBoard
}

// NewBoardRegistry returns an empty registry
func NewBoardRegistry() *BoardRegistry {
	return &BoardRegistry{boards: make(map[string]*LapBoard)}
}

// Board returns the board for the given terminal session, creating it on
// first use
func (r *BoardRegistry) Board(sessionID string) *LapBoard {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[sessionID]
	if !ok {
		board = &LapBoard{}
		r.boards[sessionID] = board
	}
	return board
}

// Drop discards the board for the given terminal session
func (r *BoardRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, sessionID)
}
