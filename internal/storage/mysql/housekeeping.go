package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateTask(ctx context.Context, t domain.HousekeepingTask) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTaskSQL,
		t.RoomID, valInt64(t.BookingID), string(t.Type), string(t.Priority), string(t.Status),
		valInt64(t.AssigneeID), valStr(t.Notes), valTime(t.DueAt), t.CreatedAt,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanTask(s rowScanner) (domain.HousekeepingTask, error) {
	var t domain.HousekeepingTask
	var booking, assignee sql.NullInt64
	var typ, prio, status string
	var due, started, completed, verified sql.NullTime
	err := s.Scan(&t.ID, &t.RoomID, &booking, &typ, &prio, &status, &assignee,
		&t.Notes, &due, &t.CreatedAt, &started, &completed, &verified)
	if err != nil {
		return domain.HousekeepingTask{}, err
	}
	t.BookingID, t.AssigneeID = ptrInt64(booking), ptrInt64(assignee)
	t.Type, t.Priority, t.Status = domain.TaskType(typ), domain.TaskPriority(prio), domain.TaskStatus(status)
	t.DueAt, t.StartedAt, t.CompletedAt, t.VerifiedAt = ptrTime(due), ptrTime(started), ptrTime(completed), ptrTime(verified)
	return t, nil
}

func (r *Repo) GetTask(ctx context.Context, id int64) (domain.HousekeepingTask, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, getTaskSQL, id))
	return t, notFound(err)
}

// ListTasks orders by urgency first, then due time.
func (r *Repo) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.HousekeepingTask, error) {
	var sb strings.Builder
	sb.WriteString(listTasksSQL)
	var args []any
	if f.Status != "" {
		sb.WriteString(" AND t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		sb.WriteString(" AND t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.RoomID > 0 {
		sb.WriteString(" AND t.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.AssigneeID > 0 {
		sb.WriteString(" AND t.assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	sb.WriteString(" ORDER BY FIELD(t.priority, 'urgent', 'high', 'normal', 'low'), t.due_at IS NULL, t.due_at, t.id")
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.HousekeepingTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransitionTask moves a task only while its stored status is still from.
func (r *Repo) TransitionTask(ctx context.Context, id int64, from, to domain.TaskStatus, at time.Time) error {
	set := "status = ?"
	args := []any{string(to)}
	switch to {
	case domain.TaskInProgress:
		set += ", started_at = COALESCE(started_at, ?)"
		args = append(args, at)
	case domain.TaskCompleted:
		set += ", completed_at = ?"
		args = append(args, at)
	case domain.TaskVerified:
		set += ", verified_at = ?"
		args = append(args, at)
	}
	args = append(args, id, string(from))
	res, err := r.db.ExecContext(ctx, "UPDATE housekeeping_tasks SET "+set+" WHERE id = ? AND status = ?", args...)
	if err := expectOne(res, err); err != nil {
		if _, gerr := r.GetTask(ctx, id); gerr != nil {
			return gerr
		}
		return err
	}
	return nil
}

func (r *Repo) AssignTask(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, assignTaskSQL, userID, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		t, err := r.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if t.AssigneeID == nil || *t.AssigneeID != userID {
			return domain.ErrConflict
		}
	}
	return nil
}

// ListRoomsNeedingStayover returns occupied rooms with no stayover task due on day.
func (r *Repo) ListRoomsNeedingStayover(ctx context.Context, propertyID int64, day time.Time) ([]domain.Room, error) {
	d := domain.Day(day)
	return r.queryRooms(ctx, roomsNeedingStayoverSQL, propertyID, d, d.AddDate(0, 0, 1))
}
