package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard/entity"
	"taskboard/storage"

	"github.com/google/uuid"
)

const boardColumns = `id, name, type, owner_id, description`

func scanBoard(row scanner) (*entity.Board, error) {
	var (
		b           entity.Board
		description sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Type, &b.OwnerID, &description); err != nil {
		return nil, err
	}
	b.Description = stringPtr(description)
	return &b, nil
}

// ListBoards returns boards the user owns followed by boards they joined.
func (s *Store) ListBoards(ctx context.Context, userID string) ([]entity.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+boardColumns+`
		FROM boards
		WHERE owner_id = ? OR id IN (SELECT board_id FROM board_members WHERE user_id = ?)
		ORDER BY owner_id = ? DESC, rowid ASC`,
		userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := []entity.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

func (s *Store) GetBoard(ctx context.Context, id string) (*entity.Board, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	b, err := scanBoard(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBoard(ctx context.Context, board *entity.Board) (*entity.Board, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES (?, ?, ?, ?, ?)`,
		id, board.Name, board.Type, board.OwnerID, nullableString(board.Description))
	if err != nil {
		return nil, fmt.Errorf("insert board: %w", err)
	}
	return s.GetBoard(ctx, id)
}

// DeleteBoard removes the board with everything hanging off it in one
// transaction.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	statements := []string{
		`DELETE FROM notifications WHERE task_id IN (SELECT id FROM tasks WHERE board_id = ?)`,
		`DELETE FROM reminders WHERE task_id IN (SELECT id FROM tasks WHERE board_id = ?)`,
		`DELETE FROM tasks WHERE board_id = ?`,
		`DELETE FROM board_members WHERE board_id = ?`,
		`DELETE FROM boards WHERE id = ?`,
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete board: %w", err)
			}
		}
		return nil
	})
}

// ListBoardMembers returns the owner and every member as users.
func (s *Store) ListBoardMembers(ctx context.Context, boardID string) ([]entity.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id IN (SELECT owner_id FROM boards WHERE id = ?)
		   OR id IN (SELECT user_id FROM board_members WHERE board_id = ?)
		ORDER BY username ASC`,
		boardID, boardID)
	if err != nil {
		return nil, fmt.Errorf("list board members: %w", err)
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) AddBoardMember(ctx context.Context, boardID, userID string) (*entity.BoardMember, error) {
	m := &entity.BoardMember{ID: uuid.NewString(), BoardID: boardID, UserID: userID}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO board_members (id, board_id, user_id) VALUES (?, ?, ?)`,
		m.ID, m.BoardID, m.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("insert board member: %w", err)
	}
	return m, nil
}

func (s *Store) IsBoardMember(ctx context.Context, boardID, userID string) (bool, error) {
	var member bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM boards WHERE id = ? AND owner_id = ?)
		    OR EXISTS (SELECT 1 FROM board_members WHERE board_id = ? AND user_id = ?)`,
		boardID, userID, boardID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check board membership: %w", err)
	}
	return member, nil
}
