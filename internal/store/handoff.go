package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feirahq/feirachat/internal/state"
)

// PutHandoff writes the pending handoff record, overwriting any previous
// one. The slot holds at most a single record; last writer wins.
func (db *DB) PutHandoff(rec *state.PendingHandoff) error {
	itemJSON := ""
	if rec.Item != nil {
		data, err := json.Marshal(rec.Item)
		if err != nil {
			return fmt.Errorf("encode handoff item: %w", err)
		}
		itemJSON = string(data)
	}
	_, err := db.Exec(`
		INSERT INTO handoff_slot (slot, counterpart_id, counterpart_name, item_json, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			counterpart_id = excluded.counterpart_id,
			counterpart_name = excluded.counterpart_name,
			item_json = excluded.item_json,
			created_at = excluded.created_at`,
		rec.CounterpartID, rec.CounterpartName, itemJSON, time.Now().UnixMilli())
	return err
}

// TakeHandoff reads and deletes the pending handoff in one transaction,
// returning nil when the slot is empty. The delete commits before the record
// is handed to the caller, so a second consumer (or a second call on the
// same activation path) always sees an empty slot.
func (db *DB) TakeHandoff() (*state.PendingHandoff, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rec state.PendingHandoff
	var itemJSON string
	err = tx.QueryRow(`
		SELECT counterpart_id, counterpart_name, item_json
		FROM handoff_slot WHERE slot = 1`).
		Scan(&rec.CounterpartID, &rec.CounterpartName, &itemJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read handoff slot: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM handoff_slot WHERE slot = 1`); err != nil {
		return nil, fmt.Errorf("clear handoff slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit handoff take: %w", err)
	}

	if itemJSON != "" {
		var item state.ItemSnapshot
		if err := json.Unmarshal([]byte(itemJSON), &item); err != nil {
			// The slot is already cleared; degrade to a record without item
			// context rather than failing the activation.
			return &rec, nil
		}
		rec.Item = &item
	}
	return &rec, nil
}
