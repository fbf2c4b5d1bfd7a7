package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodia/internal/risk/models"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

// TaskStore persists remediation tasks.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) CreateTask(ctx context.Context, t *models.RemediationTask) (id.TaskID, error) {
	if t == nil {
		return id.TaskID{}, fmt.Errorf("task is required: %w", sentinel.ErrInvalidInput)
	}
	taskID := t.ID
	if taskID.IsNil() {
		taskID = id.NewTaskID()
	}
	query := `
		INSERT INTO remediation_tasks (id, tenant_id, record_id, artifact_id, kind, priority, severity, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(taskID),
		uuid.UUID(t.TenantID),
		uuid.UUID(t.RecordID),
		nullUUID(artifactRef(t.ArtifactID)),
		string(t.Kind),
		string(t.Priority),
		string(t.Severity),
		t.DueDate,
		string(t.Status),
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return id.TaskID{}, fmt.Errorf("task %s: %w", taskID, sentinel.ErrAlreadyExists)
		}
		return id.TaskID{}, fmt.Errorf("create remediation task: %w", err)
	}
	return taskID, nil
}

// ForRecord returns the record's tasks in creation order.
func (s *TaskStore) ForRecord(ctx context.Context, recordID id.RecordID) ([]*models.RemediationTask, error) {
	query := `
		SELECT id, tenant_id, record_id, artifact_id, kind, priority, severity, due_date, status, created_at
		FROM remediation_tasks
		WHERE record_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list remediation tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.RemediationTask
	for rows.Next() {
		var (
			t                           models.RemediationTask
			taskID, tenantID, recordID  uuid.UUID
			artifactID                  uuid.NullUUID
			kind, priority, sev, status string
		)
		if err := rows.Scan(&taskID, &tenantID, &recordID, &artifactID, &kind, &priority, &sev,
			&t.DueDate, &status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan remediation task: %w", err)
		}
		t.ID = id.TaskID(taskID)
		t.TenantID = id.TenantID(tenantID)
		t.RecordID = id.RecordID(recordID)
		if artifactID.Valid {
			a := id.ArtifactID(artifactID.UUID)
			t.ArtifactID = &a
		}
		t.Kind = models.TaskKind(kind)
		t.Priority = models.TaskPriority(priority)
		t.Severity = models.TaskSeverity(sev)
		t.Status = models.TaskStatus(status)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate remediation tasks: %w", err)
	}
	return out, nil
}
