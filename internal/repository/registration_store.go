package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
)

// registration column list shared by every SELECT in this file.
const regColumns = `id, student_name, parent_phone, academic_year, semester, class_type,
       classroom, preferences, assigned_seat, status, priority, owner_id, created_at`

// scanRegistration reads one row into a model.Registration.  Preferences
// are stored as a JSON array; a NULL assigned_seat maps to the empty
// string.
func scanRegistration(row interface{ Scan(...any) error }) (*model.Registration, error) {
    var r model.Registration
    var prefs []byte
    var seat sql.NullString
    if err := row.Scan(
        &r.ID, &r.StudentName, &r.ParentPhone, &r.AcademicYear, &r.Semester, &r.ClassType,
        &r.Classroom, &prefs, &seat, &r.Status, &r.Priority, &r.OwnerID, &r.CreatedAt,
    ); err != nil {
        return nil, err
    }
    if seat.Valid {
        r.AssignedSeat = seat.String
    }
    if len(prefs) > 0 {
        if err := json.Unmarshal(prefs, &r.Preferences); err != nil {
            return nil, err
        }
    }
    if r.Preferences == nil {
        r.Preferences = []string{}
    }
    return &r, nil
}

func nullableSeat(seat string) any {
    if seat == "" {
        return nil
    }
    return seat
}

// GetRegistration returns a registration by ID within the transaction.
func (t *txn) GetRegistration(id string) (*model.Registration, error) {
    const q = `SELECT ` + regColumns + ` FROM registrations WHERE id = ?`
    reg, err := scanRegistration(t.tx.QueryRowContext(t.ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, engine.ErrRegistrationNotFound
    }
    return reg, err
}

// ListRegistrations returns the cohort in queue order.  The ORDER BY
// clause mirrors model.SortByQueueOrder so the SQL and in-memory stores
// sequence a cohort identically.
func (t *txn) ListRegistrations(scope model.Scope) ([]model.Registration, error) {
    return listRegistrations(t.ctx, t.tx, scope)
}

// FindByPhone returns the registration for a contact phone within the
// scope, or nil when none exists.
func (t *txn) FindByPhone(scope model.Scope, phone string) (*model.Registration, error) {
    const q = `SELECT ` + regColumns + ` FROM registrations
               WHERE academic_year = ? AND semester = ? AND class_type = ? AND parent_phone = ?
               LIMIT 1`
    reg, err := scanRegistration(t.tx.QueryRowContext(t.ctx, q,
        scope.AcademicYear, scope.Semester, scope.ClassType, phone))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return reg, err
}

// InsertRegistration stores a new registration row.
func (t *txn) InsertRegistration(reg *model.Registration) error {
    prefs, err := json.Marshal(reg.Preferences)
    if err != nil {
        return err
    }
    const q = `INSERT INTO registrations
               (id, student_name, parent_phone, academic_year, semester, class_type,
                classroom, preferences, assigned_seat, status, priority, owner_id, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = t.tx.ExecContext(t.ctx, q,
        reg.ID, reg.StudentName, reg.ParentPhone, reg.AcademicYear, reg.Semester, reg.ClassType,
        reg.Classroom, prefs, nullableSeat(reg.AssignedSeat), reg.Status, reg.Priority,
        reg.OwnerID, reg.CreatedAt.UTC())
    return mapSQLErr(err)
}

// UpdateRegistration overwrites the mutable fields of a registration.
func (t *txn) UpdateRegistration(reg *model.Registration) error {
    prefs, err := json.Marshal(reg.Preferences)
    if err != nil {
        return err
    }
    const q = `UPDATE registrations
               SET student_name = ?, parent_phone = ?, classroom = ?, preferences = ?,
                   assigned_seat = ?, status = ?, priority = ?
               WHERE id = ?`
    res, err := t.tx.ExecContext(t.ctx, q,
        reg.StudentName, reg.ParentPhone, reg.Classroom, prefs,
        nullableSeat(reg.AssignedSeat), reg.Status, reg.Priority, reg.ID)
    if err != nil {
        return mapSQLErr(err)
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        // RowsAffected is 0 both for a missing row and for a no-op write;
        // confirm existence before reporting not-found.
        var exists int
        if err := t.tx.QueryRowContext(t.ctx,
            `SELECT 1 FROM registrations WHERE id = ?`, reg.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
            return engine.ErrRegistrationNotFound
        }
    }
    return nil
}

// DeleteRegistration removes a registration row.
func (t *txn) DeleteRegistration(id string) error {
    res, err := t.tx.ExecContext(t.ctx, `DELETE FROM registrations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return engine.ErrRegistrationNotFound
    }
    return nil
}

// ListRegistrations is the non-transactional read model used for display
// and export.
func (s *Store) ListRegistrations(ctx context.Context, scope model.Scope) ([]model.Registration, error) {
    return listRegistrations(ctx, s.db, scope)
}

type querier interface {
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listRegistrations(ctx context.Context, q querier, scope model.Scope) ([]model.Registration, error) {
    const query = `SELECT ` + regColumns + ` FROM registrations
                   WHERE academic_year = ? AND semester = ? AND class_type = ?
                   ORDER BY priority ASC, created_at ASC, id ASC`
    rows, err := q.QueryContext(ctx, query, scope.AcademicYear, scope.Semester, scope.ClassType)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    regs := make([]model.Registration, 0)
    for rows.Next() {
        r, err := scanRegistration(rows)
        if err != nil {
            return nil, err
        }
        regs = append(regs, *r)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return regs, nil
}
