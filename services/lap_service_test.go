package services

import (
	"testing"

	"github.com/canteenhq/canteen-api/models"
	"github.com/stretchr/testify/assert"
)

func kitchenOrder(id uint, items ...models.OrderItem) models.Order {
	return models.Order{ID: id, Status: models.StatusPreparing, Items: items}
}

func TestCurrentItemsAggregation(t *testing.T) {
	active := []models.Order{
		kitchenOrder(1,
			models.OrderItem{Name: "Burger", Quantity: 2},
			models.OrderItem{Name: "Fries", Quantity: 1},
		),
		kitchenOrder(2,
			models.OrderItem{Name: "Fries", Quantity: 2},
			models.OrderItem{Name: "Tea", Quantity: 1},
		),
	}

	items := CurrentItems(active, nil)
	assert.Equal(t, []ItemCount{
		{Name: "Fries", Quantity: 3},
		{Name: "Burger", Quantity: 2},
		{Name: "Tea", Quantity: 1},
	}, items)
}

func TestCurrentItemsTieBreakByArrival(t *testing.T) {
	active := []models.Order{
		kitchenOrder(1, models.OrderItem{Name: "Tea", Quantity: 1}),
		kitchenOrder(2, models.OrderItem{Name: "Coffee", Quantity: 1}),
	}

	items := CurrentItems(active, nil)
	// Equal quantities keep first-occurrence order
	assert.Equal(t, []ItemCount{
		{Name: "Tea", Quantity: 1},
		{Name: "Coffee", Quantity: 1},
	}, items)
}

func TestDeclareLapPartitionsCurrentSet(t *testing.T) {
	active := []models.Order{
		kitchenOrder(1,
			models.OrderItem{Name: "Burger", Quantity: 2},
			models.OrderItem{Name: "Fries", Quantity: 1},
		),
	}

	lap, err := DeclareLap(active, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, lap.Number)
	assert.Equal(t, []uint{1}, lap.MemberOrderIDs)

	// After the lap, the current set is empty and the lap shows the items
	assert.Empty(t, CurrentItems(active, []Lap{lap}))
	assert.Equal(t, []ItemCount{
		{Name: "Burger", Quantity: 2},
		{Name: "Fries", Quantity: 1},
	}, LapItems(lap, active))
}

func TestDeclareLapRejectsEmptyCurrentSet(t *testing.T) {
	active := []models.Order{kitchenOrder(1, models.OrderItem{Name: "Burger", Quantity: 1})}
	lap1, err := DeclareLap(active, nil)
	assert.NoError(t, err)

	_, err = DeclareLap(active, []Lap{lap1})
	assert.ErrorIs(t, err, ErrEmptyLap)
}

func TestLapsNeverDoubleCountAcrossPartitions(t *testing.T) {
	first := kitchenOrder(1, models.OrderItem{Name: "Burger", Quantity: 2})
	active := []models.Order{first}

	lap1, err := DeclareLap(active, nil)
	assert.NoError(t, err)

	// A later arrival lands in the current set, not in the old lap
	second := kitchenOrder(2, models.OrderItem{Name: "Burger", Quantity: 1})
	active = append(active, second)

	lap2, err := DeclareLap(active, []Lap{lap1})
	assert.NoError(t, err)
	assert.Equal(t, 2, lap2.Number)
	assert.Equal(t, []uint{2}, lap2.MemberOrderIDs)

	lapTotal := 0
	for _, lap := range []Lap{lap1, lap2} {
		for _, item := range LapItems(lap, active) {
			lapTotal += item.Quantity
		}
	}
	assert.Equal(t, 3, lapTotal, "each order's items counted in exactly one lap")
	assert.Empty(t, CurrentItems(active, []Lap{lap1, lap2}))
}

func TestLapItemsDropCompletedOrders(t *testing.T) {
	order := kitchenOrder(1,
		models.OrderItem{Name: "Burger", Quantity: 2},
		models.OrderItem{Name: "Fries", Quantity: 1},
	)
	lap, err := DeclareLap([]models.Order{order}, nil)
	assert.NoError(t, err)

	// Order leaves the kitchen: the lap's displayed contents go empty,
	// the lap itself survives as "fully completed"
	assert.Empty(t, LapItems(lap, []models.Order{}))
	assert.Equal(t, []uint{1}, lap.MemberOrderIDs, "membership stays fixed at declaration")
}

func TestLapBoardSequencing(t *testing.T) {
	board := &LapBoard{}

	activeA := []models.Order{kitchenOrder(1, models.OrderItem{Name: "Burger", Quantity: 1})}
	lap1, err := board.Declare(activeA)
	assert.NoError(t, err)
	assert.Equal(t, 1, lap1.Number)

	activeB := append(activeA, kitchenOrder(2, models.OrderItem{Name: "Tea", Quantity: 1}))
	lap2, err := board.Declare(activeB)
	assert.NoError(t, err)
	assert.Equal(t, 2, lap2.Number)

	assert.Len(t, board.Laps(), 2)
}

func TestBoardRegistryIsolatesSessions(t *testing.T) {
	registry := NewBoardRegistry()

	active := []models.Order{kitchenOrder(1, models.OrderItem{Name: "Burger", Quantity: 1})}
	_, err := registry.Board("kitchen-1").Declare(active)
	assert.NoError(t, err)

	// A second terminal keeps its own partition and can lap the same orders
	assert.Len(t, registry.Board("kitchen-1").Laps(), 1)
	assert.Len(t, registry.Board("kitchen-2").Laps(), 0)

	registry.Drop("kitchen-1")
	assert.Len(t, registry.Board("kitchen-1").Laps(), 0, "dropped session starts fresh")
}
