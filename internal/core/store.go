package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BathiyaRanasinghe/safe-zone/internal/db"
)

// Store persists mibs and their email recipients.
type Store struct{ DB *db.DB }

// CreateParams describes one mib to create along with its email recipients.
type CreateParams struct {
	UserID   string
	Message  string
	SendTime time.Time
	Emails   []string
}

// CreateMib inserts one message row and one email_recipients row per address
// in a single transaction, and returns the generated message id.
func (s *Store) CreateMib(ctx context.Context, p CreateParams) (int64, error) {
	var messageID int64
	err := s.DB.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO messages(user_id, message, send_time)
			VALUES($1, $2, $3)
			RETURNING message_id
		`, p.UserID, p.Message, p.SendTime).Scan(&messageID)
		if err != nil {
			return err
		}
		for _, email := range p.Emails {
			_, err = tx.Exec(ctx, `
				INSERT INTO email_recipients(message_id, email)
				VALUES($1, $2)
			`, messageID, email)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// GetMibsForUser returns the user's mibs in message id order, recipients
// attached. With messageID set it returns a singleton or empty slice; an
// empty result is not an error at this layer.
func (s *Store) GetMibsForUser(ctx context.Context, userID string, messageID *int64) ([]Mib, error) {
	q := `
		SELECT message_id, user_id, message, send_time, sent, last_sent_time
		FROM messages WHERE user_id=$1`
	args := []any{userID}
	if messageID != nil {
		q += ` AND message_id=$2`
		args = append(args, *messageID)
	}
	q += ` ORDER BY message_id`

	rows, err := s.DB.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mibs := []Mib{}
	byID := map[int64]int{}
	var ids []int64
	for rows.Next() {
		var m Mib
		if err := rows.Scan(&m.MessageID, &m.UserID, &m.Message, &m.SendTime, &m.Sent, &m.LastSentTime); err != nil {
			return nil, err
		}
		byID[m.MessageID] = len(mibs)
		ids = append(ids, m.MessageID)
		mibs = append(mibs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return mibs, nil
	}

	recipients, err := s.recipientsForMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range recipients {
		i := byID[r.MessageID]
		mibs[i].EmailRecipients = append(mibs[i].EmailRecipients, r)
	}
	return mibs, nil
}

func (s *Store) recipientsForMessages(ctx context.Context, ids []int64) ([]EmailRecipient, error) {
	rows, err := s.DB.Pool.Query(ctx, `
		SELECT id, message_id, email, sent, send_attempt_time
		FROM email_recipients WHERE message_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmailRecipient
	for rows.Next() {
		var r EmailRecipient
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Email, &r.Sent, &r.SendAttemptTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteMibsForUser deletes the user's mibs and their recipient rows in one
// transaction. With messageID set only that mib is deleted, and only if the
// user owns it; another user's id deletes nothing and reports false. Returns
// whether at least one message row was removed.
func (s *Store) DeleteMibsForUser(ctx context.Context, userID string, messageID *int64) (bool, error) {
	var deleted int64
	err := s.DB.WithTx(ctx, func(tx pgx.Tx) error {
		cond := `user_id=$1`
		args := []any{userID}
		if messageID != nil {
			cond += ` AND message_id=$2`
			args = append(args, *messageID)
		}

		// Recipients go first so the cascade is an explicit part of the
		// transaction; the FK cascade in the schema is a backstop.
		_, err := tx.Exec(ctx, `
			DELETE FROM email_recipients
			WHERE message_id IN (SELECT message_id FROM messages WHERE `+cond+`)
		`, args...)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE `+cond, args...)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
