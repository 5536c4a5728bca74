package versions

import (
	"gorm.io/gorm"
)

// Earlier deployments prevented duplicate submissions with an application
// level check only, which leaves a race window between the check and the
// insert. This migration removes any duplicates that slipped through
// (keeping the earliest submission per candidate/project pair) and then adds
// the unique index so the database enforces the invariant.
func Migration_1_submission_unique_index(txn *gorm.DB) error {
	err := txn.Exec(`
		DELETE FROM submissions a
		USING submissions b
		WHERE a.project_id = b.project_id
		  AND a.candidate_id = b.candidate_id
		  AND (a.created_at > b.created_at OR (a.created_at = b.created_at AND a.id > b.id))
	`).Error
	if err != nil {
		return err
	}

	return txn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_project_candidate
		ON submissions (project_id, candidate_id)
	`).Error
}
