package app_test

import (
	"context"
	"testing"
	"time"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

func TestAllocate_PrefersReadyLowFloorRooms(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	a := h.alloc.Allocator

	first := h.book(t, "2030-06-10", "2030-06-12")
	second := h.book(t, "2030-06-11", "2030-06-13")
	third := h.book(t, "2030-06-11", "2030-06-12")

	want := map[int64]string{first.ID: "201", second.ID: "301", third.ID: "102"}
	for _, id := range []int64{first.ID, second.ID, third.ID} {
		b, err := a.Allocate(ctx, id)
		if err != nil {
			t.Fatalf("allocate %d: %v", id, err)
		}
		room, _ := h.store.GetRoom(ctx, *b.RoomID)
		if room.Number != want[id] {
			t.Fatalf("booking %d got room %s, want %s", id, room.Number, want[id])
		}
	}

	// a later stay reuses the first room once it is free again
	later := h.book(t, "2030-06-12", "2030-06-13")
	b, _ := a.Allocate(ctx, later.ID)
	if room, _ := h.store.GetRoom(ctx, *b.RoomID); room.Number != "201" {
		t.Fatalf("later stay got %s", room.Number)
	}
}

func TestAllocate_SkipsAssignedAndCancelled(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	a := h.alloc.Allocator

	b := h.book(t, "2030-06-10", "2030-06-11")
	assigned, _ := a.Allocate(ctx, b.ID)
	again, err := a.Allocate(ctx, b.ID)
	if err != nil || *again.RoomID != *assigned.RoomID {
		t.Fatalf("reallocated: %v %v", again.RoomID, err)
	}

	c := h.book(t, "2030-06-10", "2030-06-11")
	if _, err := h.bookings.Transition(ctx, domain.Transition{BookingID: c.ID, To: domain.BookingCancelled}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Allocate(ctx, c.ID)
	if err != nil || got.RoomID != nil {
		t.Fatalf("cancelled booking allocated: %v %v", got.RoomID, err)
	}
}

func TestAllocate_NoRoomLeavesBookingUnassigned(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	for _, r := range h.rooms {
		_ = h.store.UpdateRoomStatus(ctx, r.ID, domain.RoomMaintenance)
	}
	b := h.book(t, "2030-06-10", "2030-06-11")
	got, err := h.alloc.Allocator.Allocate(ctx, b.ID)
	if err != nil || got.RoomID != nil {
		t.Fatalf("got room=%v err=%v", got.RoomID, err)
	}
}

func TestAllocator_RunProcessesQueueAndDrains(t *testing.T) {
	h := newHotel(t)
	a := app.NewAllocator(h.store, 2, 8)

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, h.book(t, "2030-06-15", "2030-06-16").ID)
	}
	for _, id := range ids {
		a.Enqueue(id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("allocator did not stop")
	}

	seen := map[int64]bool{}
	for _, id := range ids {
		b, _ := h.store.GetBooking(context.Background(), id)
		if b.RoomID == nil {
			t.Fatalf("booking %d not allocated", id)
		}
		if seen[*b.RoomID] {
			t.Fatalf("room %d assigned twice", *b.RoomID)
		}
		seen[*b.RoomID] = true
	}
}

func TestAllocator_EnqueueNeverBlocks(t *testing.T) {
	a := app.NewAllocator(newMemStore(), 1, 1)
	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 10; i++ {
			a.Enqueue(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
