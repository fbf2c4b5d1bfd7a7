// Package postgres persists risk engine state in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
)

type categoriesDoc struct {
	Identification []string `json:"identification,omitempty"`
	Sensitive      []string `json:"sensitive,omitempty"`
	Special        []string `json:"special,omitempty"`
	Technical      []string `json:"technical,omitempty"`
}

func toCategoriesDoc(c models.DataCategories) categoriesDoc {
	return categoriesDoc{
		Identification: c.Identification,
		Sensitive:      c.Sensitive,
		Special:        c.Special,
		Technical:      c.Technical,
	}
}

func (d categoriesDoc) model() models.DataCategories {
	return models.DataCategories{
		Identification: d.Identification,
		Sensitive:      d.Sensitive,
		Special:        d.Special,
		Technical:      d.Technical,
	}
}

type transferDoc struct {
	Country      string `json:"country"`
	HasSafeguard bool   `json:"has_safeguard"`
	ProviderID   string `json:"provider_id,omitempty"`
}

func marshalJSON(field string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", field, err)
	}
	return data, nil
}

func unmarshalJSON(field string, data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return nil
}

func nullUUID(u *uuid.UUID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *u, Valid: true}
}

func artifactRef(a *id.ArtifactID) *uuid.UUID {
	if a == nil {
		return nil
	}
	u := uuid.UUID(*a)
	return &u
}

type row interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
