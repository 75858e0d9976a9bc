package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

// IdentityRepository stores the reference library.
// The exact float64 descriptor is kept for matching; the pgvector column serves
// nearest-neighbour lookups only.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// ReplaceAll atomically replaces the cached library with identities, keeping their order.
func (r *IdentityRepository) ReplaceAll(ctx context.Context, identities []facematch.KnownIdentity) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "TRUNCATE known_faces RESTART IDENTITY"); err != nil {
		return fmt.Errorf("clear known faces: %w", err)
	}

	for _, k := range identities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO known_faces (name, source, dim, descriptor, embedding)
			VALUES ($1, $2, $3, $4, $5::vector)
		`,
			k.Name,
			k.Source,
			len(k.Descriptor),
			pq.Float64Array(k.Descriptor),
			pgvector.NewVector(toFloat32(k.Descriptor)),
		); err != nil {
			return fmt.Errorf("insert known face %s: %w", k.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadAll returns the cached library in insertion order.
func (r *IdentityRepository) LoadAll(ctx context.Context) ([]facematch.KnownIdentity, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT name, source, descriptor FROM known_faces ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query known faces: %w", err)
	}
	defer rows.Close()

	known := []facematch.KnownIdentity{}
	for rows.Next() {
		var k facematch.KnownIdentity
		var descriptor pq.Float64Array
		if err := rows.Scan(&k.Name, &k.Source, &descriptor); err != nil {
			return nil, fmt.Errorf("scan known face: %w", err)
		}
		k.Descriptor = facematch.Descriptor(descriptor)
		known = append(known, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known faces: %w", err)
	}
	return known, nil
}

// Nearest returns up to limit cached identities of the same dimension closest
// to descriptor by L2 distance on float32 vectors, closest first. Equal distances keep insertion order.
func (r *IdentityRepository) Nearest(ctx context.Context, descriptor facematch.Descriptor, limit int) ([]facematch.Candidate, error) {
	vec := pgvector.NewVector(toFloat32(descriptor))
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT name, source, descriptor, embedding <-> $1::vector AS distance
		FROM known_faces
		WHERE dim = $2
		ORDER BY distance, id
		LIMIT $3
	`, vec, len(descriptor), limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest known faces: %w", err)
	}
	defer rows.Close()

	var out []facematch.Candidate
	for rows.Next() {
		var c facematch.Candidate
		var stored pq.Float64Array
		if err := rows.Scan(&c.Identity.Name, &c.Identity.Source, &stored, &c.Distance); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Identity.Descriptor = facematch.Descriptor(stored)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// Count returns the number of cached descriptors.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM known_faces").Scan(&n); err != nil {
		return 0, fmt.Errorf("count known faces: %w", err)
	}
	return n, nil
}

func toFloat32(d facematch.Descriptor) []float32 {
	out := make([]float32, len(d))
	for i, v := range d {
		out[i] = float32(v)
	}
	return out
}
