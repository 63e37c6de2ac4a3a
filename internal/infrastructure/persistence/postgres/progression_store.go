package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

const completionsStudentMissionKey = "mission_completions_student_mission_key"

const studentColumns = `
	id, name, email, profile,
	cashflow, controle, stress, rentabilite, reputation,
	total_score, level_label, version, created_at, updated_at`

const completionColumns = `
	id, student_id, mission_id, concept_id, level, choice,
	delta_cashflow, delta_controle, delta_stress, delta_rentabilite, delta_reputation,
	score_earned, events_applied, time_spent_seconds, completed_at`

// ProgressionStore implements progression.Store for PostgreSQL.
type ProgressionStore struct {
	conn    *Connection
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewProgressionStore creates a new ProgressionStore. Transactions that fail
// on serialization, deadlock or a dropped connection are run again.
func NewProgressionStore(conn *Connection, log *logger.Logger) *ProgressionStore {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("postgres_progression"))
	return &ProgressionStore{
		conn: conn,
		log:  log,
		retrier: retry.DatabaseRetrier(IsTransient, retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying transaction",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		})),
	}
}

var _ progression.Store = (*ProgressionStore)(nil)

// CreateStudent implements progression.Store.
func (s *ProgressionStore) CreateStudent(ctx context.Context, st *progression.Student) (*progression.Student, bool, error) {
	var (
		stored  *progression.Student
		created bool
	)
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, WriteTxOptions(), func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `
				INSERT INTO students (`+studentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				ON CONFLICT ((lower(email))) DO NOTHING`,
				st.ID, st.Name, st.Email, int(st.Profile),
				st.Metrics.Cashflow, st.Metrics.Control, st.Metrics.Stress,
				st.Metrics.Profitability, st.Metrics.Reputation,
				st.TotalScore, st.LevelLabel, st.Version, st.CreatedAt, st.UpdatedAt,
			)
			if err != nil {
				return err
			}
			created = tag.RowsAffected() == 1

			row := tx.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE lower(email) = lower($1)`, st.Email)
			stored, err = scanStudent(row)
			return err
		})
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, false, shared.WrapError("student", "Create", shared.ErrAlreadyExists, "student id already used", err)
		}
		return nil, false, fmt.Errorf("failed to create student: %w", err)
	}
	return stored, created, nil
}

// Snapshot implements progression.Store. The student row and completions are
// read in one REPEATABLE READ transaction.
func (s *ProgressionStore) Snapshot(ctx context.Context, studentID string) (progression.Snapshot, error) {
	if err := checkStudentID(studentID); err != nil {
		return progression.Snapshot{}, err
	}
	var snap progression.Snapshot
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
			var err error
			snap, err = loadSnapshot(ctx, tx, studentID, false)
			return err
		})
	})
	if err != nil {
		return progression.Snapshot{}, storeError("load snapshot", err)
	}
	return snap, nil
}

// Update implements progression.Store. The student row is locked with
// SELECT ... FOR UPDATE for the whole unit of work.
func (s *ProgressionStore) Update(ctx context.Context, studentID string, fn progression.UpdateFunc) (progression.Snapshot, error) {
	if err := checkStudentID(studentID); err != nil {
		return progression.Snapshot{}, err
	}
	var result progression.Snapshot
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, WriteTxOptions(), func(tx pgx.Tx) error {
			before, err := loadSnapshot(ctx, tx, studentID, true)
			if err != nil {
				return err
			}

			commit, err := fn(before)
			if err != nil {
				return err
			}
			if commit == nil {
				result = before
				return nil
			}
			if err := commit.Verify(before); err != nil {
				return err
			}

			result, err = apply(ctx, tx, before, commit)
			return err
		})
	})
	if err != nil {
		return progression.Snapshot{}, storeError("update progression", err)
	}
	return result, nil
}

// MetricHistory implements progression.Store.
func (s *ProgressionStore) MetricHistory(ctx context.Context, studentID string, page shared.Pagination) ([]progression.MetricSnapshot, error) {
	if err := checkStudentID(studentID); err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, `
		SELECT student_id, mission_id, cashflow, controle, stress, rentabilite, reputation,
		       total_score, level_label, recorded_at
		FROM metric_snapshots
		WHERE student_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`,
		studentID, page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric history: %w", err)
	}

	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (progression.MetricSnapshot, error) {
		var (
			m  progression.MetricSnapshot
			at time.Time
		)
		err := row.Scan(&m.StudentID, &m.MissionID,
			&m.Metrics.Cashflow, &m.Metrics.Control, &m.Metrics.Stress,
			&m.Metrics.Profitability, &m.Metrics.Reputation,
			&m.TotalScore, &m.LevelLabel, &at,
		)
		m.RecordedAt = at.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan metric history: %w", err)
	}
	return history, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit of work
// ─────────────────────────────────────────────────────────────────────────────

func apply(ctx context.Context, tx pgx.Tx, before progression.Snapshot, c *progression.Commit) (progression.Snapshot, error) {
	st := c.Student
	tag, err := tx.Exec(ctx, `
		UPDATE students SET
			name = $3, profile = $4,
			cashflow = $5, controle = $6, stress = $7, rentabilite = $8, reputation = $9,
			total_score = $10, level_label = $11, updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		st.ID, before.Student.Version, st.Name, int(st.Profile),
		st.Metrics.Cashflow, st.Metrics.Control, st.Metrics.Stress,
		st.Metrics.Profitability, st.Metrics.Reputation,
		st.TotalScore, st.LevelLabel, st.UpdatedAt,
	)
	if err != nil {
		return progression.Snapshot{}, fmt.Errorf("failed to update student: %w", err)
	}
	if n := tag.RowsAffected(); n != 1 {
		return progression.Snapshot{}, shared.WrapError("progression", "Commit", shared.ErrInconsistentState,
			fmt.Sprintf("student update touched %d rows", n), nil)
	}

	next := progression.Snapshot{
		Student:     st,
		Completions: make(map[string]progression.Completion, len(before.Completions)+1),
	}
	next.Student.Version = before.Student.Version + 1
	for k, v := range before.Completions {
		next.Completions[k] = v
	}

	if comp := c.Completion; comp != nil {
		events := comp.EventsApplied
		if events == nil {
			events = []string{}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO mission_completions (`+completionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			comp.ID, comp.StudentID, comp.MissionID, comp.ConceptID, comp.Level.String(), comp.Choice,
			comp.Delta.Cashflow, comp.Delta.Control, comp.Delta.Stress,
			comp.Delta.Profitability, comp.Delta.Reputation,
			comp.ScoreEarned, events, comp.TimeSpentSeconds, comp.CompletedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) && constraintName(err) == completionsStudentMissionKey {
				return progression.Snapshot{}, shared.WrapError("submission", "Commit", shared.ErrDuplicateSubmission,
					"Mission already completed", err)
			}
			return progression.Snapshot{}, fmt.Errorf("failed to insert completion: %w", err)
		}
		next.Completions[comp.MissionID] = *comp
	}

	if h := c.History; h != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO metric_snapshots (
				student_id, mission_id, cashflow, controle, stress, rentabilite, reputation,
				total_score, level_label, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			h.StudentID, h.MissionID,
			h.Metrics.Cashflow, h.Metrics.Control, h.Metrics.Stress,
			h.Metrics.Profitability, h.Metrics.Reputation,
			h.TotalScore, h.LevelLabel, h.RecordedAt,
		)
		if err != nil {
			return progression.Snapshot{}, fmt.Errorf("failed to insert metric snapshot: %w", err)
		}
	}
	return next, nil
}

// checkStudentID reports an id that is not a UUID as an unknown student.
func checkStudentID(id string) error {
	if uuid.Validate(id) != nil {
		return shared.ErrStudentNotFound
	}
	return nil
}

func loadSnapshot(ctx context.Context, q Querier, studentID string, lock bool) (progression.Snapshot, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	st, err := scanStudent(q.QueryRow(ctx, query, studentID))
	if err != nil {
		if IsNoRows(err) {
			return progression.Snapshot{}, shared.ErrStudentNotFound
		}
		return progression.Snapshot{}, err
	}

	rows, err := q.Query(ctx, `SELECT `+completionColumns+` FROM mission_completions WHERE student_id = $1`, studentID)
	if err != nil {
		return progression.Snapshot{}, fmt.Errorf("failed to query completions: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanCompletion)
	if err != nil {
		return progression.Snapshot{}, fmt.Errorf("failed to scan completions: %w", err)
	}

	snap := progression.Snapshot{Student: *st, Completions: make(map[string]progression.Completion, len(list))}
	for _, c := range list {
		snap.Completions[c.MissionID] = c
	}
	return snap, nil
}

func scanStudent(row pgx.Row) (*progression.Student, error) {
	var (
		st      progression.Student
		profile int
		m       metrics.Vector
	)
	err := row.Scan(&st.ID, &st.Name, &st.Email, &profile,
		&m.Cashflow, &m.Control, &m.Stress, &m.Profitability, &m.Reputation,
		&st.TotalScore, &st.LevelLabel, &st.Version, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Profile = catalog.ProfileID(profile)
	st.Metrics = m
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

func scanCompletion(row pgx.CollectableRow) (progression.Completion, error) {
	var (
		c     progression.Completion
		level string
	)
	err := row.Scan(&c.ID, &c.StudentID, &c.MissionID, &c.ConceptID, &level, &c.Choice,
		&c.Delta.Cashflow, &c.Delta.Control, &c.Delta.Stress, &c.Delta.Profitability, &c.Delta.Reputation,
		&c.ScoreEarned, &c.EventsApplied, &c.TimeSpentSeconds, &c.CompletedAt,
	)
	if err != nil {
		return c, err
	}
	if c.Level, err = catalog.ParseLevel(level); err != nil {
		return c, err
	}
	c.CompletedAt = c.CompletedAt.UTC()
	return c, nil
}

// storeError keeps domain errors as they are and wraps driver failures.
func storeError(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
