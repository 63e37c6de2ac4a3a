package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(254) NOT NULL,
    profile SMALLINT NOT NULL DEFAULT -1,
    cashflow INTEGER NOT NULL,
    controle INTEGER NOT NULL,
    stress INTEGER NOT NULL,
    rentabilite INTEGER NOT NULL,
    reputation INTEGER NOT NULL,
    total_score INTEGER NOT NULL DEFAULT 0,
    level_label VARCHAR(40) NOT NULL,
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_profile CHECK (profile IN (-1, 1, 2, 3)),
    CONSTRAINT valid_total_score CHECK (total_score >= 0),
    CONSTRAINT valid_version CHECK (version >= 1)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_students_email ON students (lower(email));
`

const migration001Down = `
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: MISSION COMPLETIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS mission_completions (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    mission_id VARCHAR(64) NOT NULL,
    concept_id VARCHAR(64) NOT NULL,
    level VARCHAR(20) NOT NULL,
    choice VARCHAR(16) NOT NULL,
    delta_cashflow INTEGER NOT NULL,
    delta_controle INTEGER NOT NULL,
    delta_stress INTEGER NOT NULL,
    delta_rentabilite INTEGER NOT NULL,
    delta_reputation INTEGER NOT NULL,
    score_earned INTEGER NOT NULL,
    events_applied TEXT[] NOT NULL DEFAULT '{}',
    time_spent_seconds INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT mission_completions_student_mission_key UNIQUE (student_id, mission_id),
    CONSTRAINT valid_score_earned CHECK (score_earned >= 0),
    CONSTRAINT valid_time_spent CHECK (time_spent_seconds >= 0)
);

CREATE INDEX IF NOT EXISTS idx_completions_student ON mission_completions(student_id, completed_at);
`

const migration002Down = `
DROP TABLE IF EXISTS mission_completions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: METRIC SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS metric_snapshots (
    id BIGSERIAL PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    mission_id VARCHAR(64) NOT NULL,
    cashflow INTEGER NOT NULL,
    controle INTEGER NOT NULL,
    stress INTEGER NOT NULL,
    rentabilite INTEGER NOT NULL,
    reputation INTEGER NOT NULL,
    total_score INTEGER NOT NULL,
    level_label VARCHAR(40) NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metric_snapshots_student ON metric_snapshots(student_id, id);
`

const migration003Down = `
DROP TABLE IF EXISTS metric_snapshots;
`

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_students", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_mission_completions", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_metric_snapshots", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}
