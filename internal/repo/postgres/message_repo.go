package postgres

import (
	"context"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessagesRepo interface {
	// Conversation returns the conversation for the unordered pair, creating it on first use.
	Conversation(ctx context.Context, userA, userB int64) (*domain.Conversation, error)
	FindConversation(ctx context.Context, id int64) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]domain.ConversationSummary, error)
	Create(ctx context.Context, conversationID, senderID int64, in *domain.SendMessageRequest) (*domain.Message, error)
	List(ctx context.Context, conversationID int64) ([]domain.Message, error)
	// Advance moves messages not sent by readerID forward to status. Messages already past it are untouched.
	Advance(ctx context.Context, conversationID, readerID int64, status domain.MessageStatus) (int64, error)
}

type MessagesRepoImpl struct{ pool *pgxpool.Pool }

func NewMessagesRepo(pool *pgxpool.Pool) *MessagesRepoImpl { return &MessagesRepoImpl{pool: pool} }

const conversationCols = `id, user_a, user_b, created_at, updated_at`

const messageCols = `id, conversation_id, sender_id, type, content, image_url, status, created_at`

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	if err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Type, &m.Content, &m.ImageURL, &m.Status, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessagesRepoImpl) Conversation(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	a, b := domain.ParticipantPair(userA, userB)
	// the no-op update makes RETURNING yield the existing row on conflict
	const q = `
INSERT INTO conversations (user_a, user_b) VALUES ($1,$2)
ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
RETURNING ` + conversationCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanConversation(r.pool.QueryRow(ctx, q, a, b))
}

func (r *MessagesRepoImpl) FindConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	const q = `SELECT ` + conversationCols + ` FROM conversations WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanConversation(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return c, err
}

func (r *MessagesRepoImpl) ListConversations(ctx context.Context, userID int64) ([]domain.ConversationSummary, error) {
	const q = `
SELECT c.id, u.id, u.name, COALESCE(u.profile_image, ''),
       COALESCE(CASE WHEN lm.type = 'image' THEN '[image]' ELSE lm.content END, ''),
       COALESCE(lm.created_at, c.created_at),
       (SELECT count(*) FROM messages m
         WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.status <> 'read')
FROM conversations c
JOIN users u ON u.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
LEFT JOIN LATERAL (
  SELECT type, content, created_at FROM messages
  WHERE conversation_id = c.id
  ORDER BY created_at DESC, id DESC
  LIMIT 1
) lm ON true
WHERE c.user_a = $1 OR c.user_b = $1
ORDER BY COALESCE(lm.created_at, c.created_at) DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ConversationSummary, 0)
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(
			&s.ID, &s.RecipientID, &s.RecipientName, &s.RecipientImage,
			&s.LastMessage, &s.Timestamp, &s.UnreadCount,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *MessagesRepoImpl) Create(ctx context.Context, conversationID, senderID int64, in *domain.SendMessageRequest) (*domain.Message, error) {
	const q = `
WITH m AS (
  INSERT INTO messages (conversation_id, sender_id, type, content, image_url)
  VALUES ($1,$2,$3,$4,NULLIF($5,''))
  RETURNING ` + messageCols + `
), touch AS (
  UPDATE conversations SET updated_at = now() WHERE id = $1
)
SELECT ` + messageCols + ` FROM m`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanMessage(r.pool.QueryRow(ctx, q, conversationID, senderID, string(in.Type), in.Content, in.ImageURL))
}

func (r *MessagesRepoImpl) List(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	const q = `SELECT ` + messageCols + ` FROM messages WHERE conversation_id=$1 ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MessagesRepoImpl) Advance(ctx context.Context, conversationID, readerID int64, status domain.MessageStatus) (int64, error) {
	var from []string
	switch status {
	case domain.MessageDelivered:
		from = []string{string(domain.MessageSent)}
	case domain.MessageRead:
		from = []string{string(domain.MessageSent), string(domain.MessageDelivered)}
	default:
		return 0, nil
	}
	const q = `UPDATE messages SET status=$3
WHERE conversation_id=$1 AND sender_id<>$2 AND status = ANY($4)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, conversationID, readerID, string(status), from)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

var _ MessagesRepo = (*MessagesRepoImpl)(nil)
