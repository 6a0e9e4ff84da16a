package repository

import (
	"context"
	"database/sql"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

type ChargeRepository struct {
	db *sql.DB
}

func NewChargeRepository(db *sql.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

func (r *ChargeRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS charges (
			id VARCHAR(64) PRIMARY KEY,
			amount BIGINT NOT NULL,
			currency VARCHAR(3) NOT NULL,
			status VARCHAR(50) NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			gateway_charge_id VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_charges_status ON charges(status)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *ChargeRepository) InsertCharge(ctx context.Context, record *models.ChargeRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO charges (id, amount, currency, status, detail, gateway_charge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, record.ID, record.Amount, record.Currency, record.Status, record.Detail, record.GatewayChargeID, record.CreatedAt)
	return err
}

func (r *ChargeRepository) GetByID(ctx context.Context, chargeID string) (*models.ChargeRecord, error) {
	var rec models.ChargeRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, amount, currency, status, detail, gateway_charge_id, created_at
		FROM charges WHERE id = $1
	`, chargeID).Scan(&rec.ID, &rec.Amount, &rec.Currency, &rec.Status, &rec.Detail, &rec.GatewayChargeID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
