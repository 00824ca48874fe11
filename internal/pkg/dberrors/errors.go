package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Unique constraint names declared in migrations/001_init.sql.
const (
	UsersEmailKey             = "users_email_key"
	HubMembersPkey            = "hub_members_pkey"
	HubJoinRequestsPkey       = "hub_join_requests_pkey"
	ParticipationsUniqueUser  = "activity_participations_activity_id_user_id_key"
	RoadmapAdoptersUniqueUser = "roadmap_adopters_template_id_user_id_key"
	RatingsUniqueLearner      = "ratings_session_id_learner_id_key"
	SessionParticipantsPkey   = "session_participants_pkey"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports whether err is any unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
