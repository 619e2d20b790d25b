package mysql

// -----------------------------------------------------------------------------
// PROPERTIES, ROOM TYPES, ROOMS
// -----------------------------------------------------------------------------

const insertPropertySQL = `
INSERT INTO properties (name, timezone, currency, check_in_time, check_out_time)
VALUES (?, ?, ?, ?, ?)
`

const propertyColumns = `id, name, timezone, currency, check_in_time, check_out_time`

const getPropertySQL = `SELECT ` + propertyColumns + ` FROM properties WHERE id = ?`

const listPropertiesSQL = `SELECT ` + propertyColumns + ` FROM properties ORDER BY id`

const insertRoomTypeSQL = `
INSERT INTO room_types (property_id, code, name, description, base_rate, max_adults, max_children)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const roomTypeColumns = `id, property_id, code, name, COALESCE(description, ''), base_rate, max_adults, max_children`

const getRoomTypeSQL = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`

const listRoomTypesSQL = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE property_id = ? ORDER BY id`

const insertRoomSQL = `
INSERT INTO rooms (property_id, room_type_id, number, floor, status, notes)
VALUES (?, ?, ?, ?, ?, ?)
`

const roomColumns = `r.id, r.property_id, r.room_type_id, r.number, r.floor, r.status, COALESCE(r.notes, ''), r.updated_at`

const getRoomSQL = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.id = ?`

// listRoomsSQL is completed with optional filters and the ordering.
const listRoomsSQL = `SELECT ` + roomColumns + ` FROM rooms r WHERE 1 = 1`

const updateRoomStatusSQL = `UPDATE rooms SET status = ? WHERE id = ?`

const countSellableRoomsSQL = `
SELECT COUNT(*) FROM rooms WHERE room_type_id = ? AND status <> 'out_of_order'
`

// -----------------------------------------------------------------------------
// AVAILABILITY CALENDAR
// -----------------------------------------------------------------------------

// Counters and restrictions of existing rows survive a regeneration.
const upsertCalendarPrefix = "INSERT INTO room_availability\n  (room_type_id, date, total, price, min_stay)\nVALUES "

const upsertCalendarOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  total = VALUES(total),\n" +
	"  price = VALUES(price)\n"

const calendarColumns = `room_type_id, date, total, booked, blocked, price, min_stay, max_stay,
  closed_to_arrival, closed_to_departure, stop_sell`

const getCalendarSQL = `
SELECT ` + calendarColumns + `
FROM room_availability
WHERE room_type_id = ? AND date >= ? AND date < ?
ORDER BY date
`

// The restriction statements end with an open "IN (" that the caller closes with
// one placeholder per date.
const lockCalendarDatesPrefix = `
SELECT booked, total FROM room_availability
WHERE room_type_id = ? AND date IN (`

const lockCalendarDatesSuffix = `) FOR UPDATE`

// A NULL argument leaves the column unchanged.
const updateRestrictionsPrefix = `
UPDATE room_availability SET
  price               = COALESCE(?, price),
  min_stay            = COALESCE(?, min_stay),
  max_stay            = COALESCE(?, max_stay),
  closed_to_arrival   = COALESCE(?, closed_to_arrival),
  closed_to_departure = COALESCE(?, closed_to_departure),
  stop_sell           = COALESCE(?, stop_sell),
  blocked             = COALESCE(?, blocked)
WHERE room_type_id = ? AND date IN (`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

// reserveNightsSQL takes one unit on every night of [check_in, check_out); the
// caller compares the affected rows with the number of nights.
const reserveNightsSQL = `
UPDATE room_availability
SET booked = booked + 1
WHERE room_type_id = ? AND date >= ? AND date < ?
  AND stop_sell = FALSE
  AND booked + blocked < total
`

const releaseNightsSQL = `
UPDATE room_availability
SET booked = booked - 1
WHERE room_type_id = ? AND date >= ? AND date < ? AND booked > 0
`

const usePromotionSQL = `
UPDATE promotions
SET used_count = used_count + 1
WHERE id = ? AND active = TRUE AND (usage_limit = 0 OR used_count < usage_limit)
`

const insertBookingSQL = `
INSERT INTO bookings
  (reference, property_id, room_type_id, guest_name, guest_email, guest_phone,
   check_in, check_out, adults, children, status, source, promo_code, promotion_id,
   subtotal, discount, taxes, total, currency, special_requests, idempotency_key,
   created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertBookingNightsPrefix = "INSERT INTO booking_nights (booking_id, night, price) VALUES "

const bookingColumns = `b.id, b.reference, b.property_id, b.room_type_id, b.room_id,
  b.guest_name, b.guest_email, COALESCE(b.guest_phone, ''),
  b.check_in, b.check_out, b.adults, b.children, b.status, b.source,
  COALESCE(b.promo_code, ''), b.promotion_id,
  b.subtotal, b.discount, b.taxes, b.total, b.currency,
  COALESCE(b.special_requests, ''), COALESCE(b.idempotency_key, ''),
  b.created_at, b.updated_at, b.checked_in_at, b.checked_out_at, b.cancelled_at,
  COALESCE(b.cancel_reason, '')`

const getBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`

const getBookingByReferenceSQL = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.reference = ?`

const getBookingByIdempotencySQL = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.idempotency_key = ?`

const listBookingNightsSQL = `
SELECT night, price FROM booking_nights WHERE booking_id = ? ORDER BY night
`

const listBookingsSQL = `SELECT ` + bookingColumns + ` FROM bookings b WHERE 1 = 1`

const countBookingsSQL = `SELECT COUNT(*) FROM bookings b WHERE 1 = 1`

const lockBookingSQL = `
SELECT status, room_type_id, check_in, check_out, room_id
FROM bookings WHERE id = ? FOR UPDATE
`

const lockRoomSQL = `SELECT id FROM rooms WHERE id = ? FOR UPDATE`

// Bookings in these statuses hold a night and a room.
const activeStatuses = `('pending', 'confirmed', 'checked_in')`

const countRoomOverlapsSQL = `
SELECT COUNT(*) FROM bookings
WHERE room_id = ? AND id <> ? AND status IN ` + activeStatuses + `
  AND check_in < ? AND check_out > ?
`

const assignRoomSQL = `
UPDATE bookings SET room_id = ?, updated_at = ? WHERE id = ? AND room_id IS NULL
`

const allocationCandidatesSQL = `
SELECT ` + roomColumns + `
FROM rooms r
WHERE r.room_type_id = ?
  AND r.status NOT IN ('maintenance', 'out_of_order')
  AND NOT EXISTS (
    SELECT 1 FROM bookings b
    WHERE b.room_id = r.id AND b.status IN ` + activeStatuses + `
      AND b.check_in < ? AND b.check_out > ?
  )
ORDER BY r.floor, r.number
`

const countGuestBookingsSQL = `
SELECT COUNT(*) FROM bookings WHERE guest_email = ? AND status <> 'cancelled'
`

const listOverdueConfirmedSQL = `
SELECT ` + bookingColumns + `
FROM bookings b
WHERE b.status = 'confirmed' AND b.check_in < ?
ORDER BY b.check_in
LIMIT 500
`

const insertChargeSQL = `
INSERT INTO folio_charges (booking_id, source, reference, description, amount, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const listChargesSQL = `
SELECT id, booking_id, source, COALESCE(reference, ''), description, amount, created_at
FROM folio_charges WHERE booking_id = ? ORDER BY id
`

// -----------------------------------------------------------------------------
// PROMOTIONS
// -----------------------------------------------------------------------------

const insertPromotionSQL = `
INSERT INTO promotions
  (code, name, type, value, max_discount, valid_from, valid_to, stay_from, stay_to,
   min_nights, max_nights, min_amount, room_type_ids, arrival_days, usage_limit,
   first_booking, active)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const promotionColumns = `id, code, name, type, value, max_discount, valid_from, valid_to,
  stay_from, stay_to, min_nights, max_nights, min_amount, room_type_ids, arrival_days,
  usage_limit, used_count, first_booking, active, created_at`

const getPromotionSQL = `SELECT ` + promotionColumns + ` FROM promotions WHERE id = ?`

const getPromotionByCodeSQL = `SELECT ` + promotionColumns + ` FROM promotions WHERE code = ?`

const listPromotionsSQL = `SELECT ` + promotionColumns + ` FROM promotions WHERE (? = FALSE OR active = TRUE) ORDER BY id DESC`

const deactivatePromotionSQL = `UPDATE promotions SET active = FALSE WHERE id = ?`

// -----------------------------------------------------------------------------
// HOUSEKEEPING
// -----------------------------------------------------------------------------

const insertTaskSQL = `
INSERT INTO housekeeping_tasks (room_id, booking_id, type, priority, status, assignee_id, notes, due_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const taskColumns = `t.id, t.room_id, t.booking_id, t.type, t.priority, t.status, t.assignee_id,
  COALESCE(t.notes, ''), t.due_at, t.created_at, t.started_at, t.completed_at, t.verified_at`

const getTaskSQL = `SELECT ` + taskColumns + ` FROM housekeeping_tasks t WHERE t.id = ?`

const listTasksSQL = `SELECT ` + taskColumns + ` FROM housekeeping_tasks t WHERE 1 = 1`

const assignTaskSQL = `
UPDATE housekeeping_tasks SET assignee_id = ?
WHERE id = ? AND status NOT IN ('verified', 'cancelled')
`

const roomsNeedingStayoverSQL = `
SELECT ` + roomColumns + `
FROM rooms r
WHERE r.property_id = ? AND r.status = 'occupied'
  AND NOT EXISTS (
    SELECT 1 FROM housekeeping_tasks t
    WHERE t.room_id = r.id AND t.type = 'stayover_clean' AND t.status <> 'cancelled'
      AND t.due_at >= ? AND t.due_at < ?
  )
ORDER BY r.floor, r.number
`

// -----------------------------------------------------------------------------
// POINT OF SALE
// -----------------------------------------------------------------------------

const insertOutletSQL = `INSERT INTO pos_outlets (property_id, name, kind) VALUES (?, ?, ?)`

const listOutletsSQL = `SELECT id, property_id, name, kind FROM pos_outlets WHERE property_id = ? ORDER BY name`

const insertMenuItemSQL = `
INSERT INTO menu_items (outlet_id, name, category, price, tax_percent, available)
VALUES (?, ?, ?, ?, ?, ?)
`

const menuItemColumns = `id, outlet_id, name, category, price, tax_percent, available`

const getMenuItemSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ?`

const listMenuItemsSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE outlet_id = ? ORDER BY category, name`

const insertOrderSQL = `
INSERT INTO pos_orders (outlet_id, table_label, status, subtotal, taxes, total, opened_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const getOrderSQL = `
SELECT id, outlet_id, COALESCE(table_label, ''), status, subtotal, taxes, total,
  COALESCE(payment_method, ''), booking_id, opened_at, closed_at
FROM pos_orders WHERE id = ?
`

const listOrderLinesSQL = `
SELECT id, order_id, menu_item_id, name, quantity, unit_price, tax_percent, line_total
FROM pos_order_lines WHERE order_id = ? ORDER BY id
`

const insertOrderLineSQL = `
INSERT INTO pos_order_lines (order_id, menu_item_id, name, quantity, unit_price, tax_percent, line_total)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const updateOrderTotalsSQL = `
UPDATE pos_orders SET subtotal = ?, taxes = ?, total = ? WHERE id = ? AND status = 'open'
`

const closeOrderSQL = `
UPDATE pos_orders
SET status = 'closed', payment_method = ?, booking_id = ?, closed_at = ?
WHERE id = ? AND status = 'open'
`

const voidOrderSQL = `UPDATE pos_orders SET status = 'void', closed_at = ? WHERE id = ? AND status = 'open'`

// -----------------------------------------------------------------------------
// EVENTS
// -----------------------------------------------------------------------------

const insertVenueSQL = `INSERT INTO venues (property_id, name, capacity, hourly_rate) VALUES (?, ?, ?, ?)`

const venueColumns = `id, property_id, name, capacity, hourly_rate`

const getVenueSQL = `SELECT ` + venueColumns + ` FROM venues WHERE id = ?`

const lockVenueSQL = `SELECT id FROM venues WHERE id = ? FOR UPDATE`

const listVenuesSQL = `SELECT ` + venueColumns + ` FROM venues WHERE property_id = ? ORDER BY name`

const countEventClashesSQL = `
SELECT COUNT(*) FROM event_bookings
WHERE venue_id = ? AND event_date = ? AND status <> 'cancelled'
  AND start_min < ? AND end_min > ?
`

const insertEventSQL = `
INSERT INTO event_bookings
  (venue_id, title, organizer_name, organizer_email, event_date, start_min, end_min,
   attendees, status, package_per_head, total, notes, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const eventColumns = `id, venue_id, title, organizer_name, organizer_email, event_date,
  start_min, end_min, attendees, status, package_per_head, total, COALESCE(notes, ''), created_at`

const getEventSQL = `SELECT ` + eventColumns + ` FROM event_bookings WHERE id = ?`

const listEventsSQL = `SELECT ` + eventColumns + ` FROM event_bookings WHERE 1 = 1`

const updateEventStatusSQL = `UPDATE event_bookings SET status = ? WHERE id = ? AND status = ?`

// -----------------------------------------------------------------------------
// INVENTORY
// -----------------------------------------------------------------------------

const insertItemSQL = `
INSERT INTO inventory_items (sku, name, category, unit, quantity, reorder_level, unit_cost)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const itemColumns = `id, sku, name, category, unit, quantity, reorder_level, unit_cost, updated_at`

const getItemSQL = `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ?`

const listItemsSQL = `SELECT ` + itemColumns + ` FROM inventory_items WHERE 1 = 1`

// COALESCE keeps the stored value when a patch field is NULL.
const updateItemSQL = `
UPDATE inventory_items SET
  name          = COALESCE(?, name),
  category      = COALESCE(?, category),
  unit          = COALESCE(?, unit),
  reorder_level = COALESCE(?, reorder_level),
  unit_cost     = COALESCE(?, unit_cost)
WHERE id = ?
`

const deleteItemSQL = `DELETE FROM inventory_items WHERE id = ?`

const adjustStockSQL = `
UPDATE inventory_items SET quantity = quantity + ? WHERE id = ? AND quantity + ? >= 0
`

const insertMovementSQL = `
INSERT INTO stock_movements (item_id, delta, reason, actor) VALUES (?, ?, ?, ?)
`

const listMovementsSQL = `
SELECT id, item_id, delta, reason, actor, created_at
FROM stock_movements WHERE item_id = ? ORDER BY id DESC LIMIT ?
`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (email, name, role, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?, ?)
`

const userColumns = `id, email, name, role, password_hash, active, created_at`

const getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

const getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// -----------------------------------------------------------------------------
// ANALYTICS
// -----------------------------------------------------------------------------

const roomNightsAvailableSQL = `
SELECT COALESCE(SUM(a.total - a.blocked), 0)
FROM room_availability a
JOIN room_types rt ON rt.id = a.room_type_id
WHERE rt.property_id = ? AND a.date >= ? AND a.date < ?
`

// Sold nights and room revenue count stays that were honoured or still are.
const roomNightsSoldSQL = `
SELECT COUNT(*), COALESCE(SUM(n.price), 0)
FROM booking_nights n
JOIN bookings b ON b.id = n.booking_id
WHERE b.property_id = ? AND n.night >= ? AND n.night < ?
  AND b.status IN ('confirmed', 'checked_in', 'checked_out')
`

const posRevenueSQL = `
SELECT COALESCE(SUM(o.total), 0)
FROM pos_orders o
JOIN pos_outlets ot ON ot.id = o.outlet_id
WHERE ot.property_id = ? AND o.status = 'closed' AND o.closed_at >= ? AND o.closed_at < ?
`

const eventRevenueSQL = `
SELECT COALESCE(SUM(e.total), 0)
FROM event_bookings e
JOIN venues v ON v.id = e.venue_id
WHERE v.property_id = ? AND e.status = 'confirmed' AND e.event_date >= ? AND e.event_date < ?
`

// bookingCountsSQL takes the grouping column from a fixed whitelist.
const bookingCountsSQL = `
SELECT %s, COUNT(*)
FROM bookings
WHERE property_id = ? AND check_in < ? AND check_out > ?
GROUP BY %s
`

const openTaskCountsSQL = `
SELECT t.status, COUNT(*)
FROM housekeeping_tasks t
JOIN rooms r ON r.id = t.room_id
WHERE r.property_id = ? AND t.status IN ('pending', 'in_progress', 'completed')
GROUP BY t.status
`

const lowStockCountSQL = `SELECT COUNT(*) FROM inventory_items WHERE quantity <= reorder_level`
