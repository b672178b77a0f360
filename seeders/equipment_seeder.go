package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func seedEquipments(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'equipments'...")

	batch := &pgx.Batch{}
	for _, e := range equipmentsData {
		batch.Queue(
			`INSERT INTO equipments (type, model, serial_number, location, hours_used)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (serial_number) DO NOTHING`,
			e.Type, e.Model, e.SerialNumber, e.Location, e.HoursUsed,
		)
	}

	results := db.SendBatch(ctx, batch)
	defer results.Close()
	for _, e := range equipmentsData {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("не удалось добавить технику %s: %w", e.SerialNumber, err)
		}
	}
	log.Printf("    - Обработано %d единиц техники.", len(equipmentsData))
	return nil
}

func seedTemplates(ctx context.Context, db *pgxpool.Pool) error {
	for _, t := range templatesData {
		if err := seedTemplate(ctx, db, t); err != nil {
			return fmt.Errorf("шаблон '%s': %w", t.Name, err)
		}
	}
	return nil
}

func seedTemplate(ctx context.Context, db *pgxpool.Pool, t templateSeed) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM inspection_templates WHERE name = $1)", t.Name).Scan(&exists); err != nil {
		return err
	}
	if exists {
		log.Printf("    - Шаблон '%s' уже существует. Пропускаем.", t.Name)
		return nil
	}

	// Шаблон по умолчанию для типа может быть только один.
	var hasDefault bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM inspection_templates WHERE equipment_type = $1 AND is_default)",
		t.EquipmentType,
	).Scan(&hasDefault); err != nil {
		return err
	}

	var templateID uint64
	if err := tx.QueryRow(ctx,
		`INSERT INTO inspection_templates (name, equipment_type, is_default) VALUES ($1, $2, $3) RETURNING id`,
		t.Name, t.EquipmentType, !hasDefault,
	).Scan(&templateID); err != nil {
		return err
	}

	for i, section := range t.Sections {
		var sectionID uint64
		if err := tx.QueryRow(ctx,
			`INSERT INTO template_sections (template_id, name, sort_order) VALUES ($1, $2, $3) RETURNING id`,
			templateID, section.Name, i+1,
		).Scan(&sectionID); err != nil {
			return err
		}
		for j, cp := range section.Checkpoints {
			if _, err := tx.Exec(ctx,
				`INSERT INTO template_checkpoints (section_id, name, critical, sort_order) VALUES ($1, $2, $3, $4)`,
				sectionID, cp.Name, cp.Critical, j+1,
			); err != nil {
				return err
			}
		}
	}

	log.Printf("    - Шаблон '%s' создан (id=%d, по умолчанию: %t).", t.Name, templateID, !hasDefault)
	return tx.Commit(ctx)
}
