package db

import (
	"database/sql"
	"errors"

	"github.com/ad/go-telegram-quiz/internal/models"
)

type UserRepository struct {
	queue *DBQueue
}

func NewUserRepository(queue *DBQueue) *UserRepository {
	return &UserRepository{queue: queue}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO users (id, first_name, last_name, username, mobile_number, level, poll_index, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, user.ID, user.FirstName, user.LastName, user.Username, user.MobileNumber, user.Level, user.PollIndex, user.Completed)
		return nil, err
	})
	return err
}

// GetByID returns (nil, nil) when no user with that id exists.
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, first_name, last_name, username, mobile_number, level, poll_index, completed, created_at
			FROM users WHERE id = ?
		`, id)
		return scanUser(row)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetAll() ([]*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, first_name, last_name, username, mobile_number, level, poll_index, completed, created_at
			FROM users ORDER BY created_at, id
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var users []*models.User
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return nil, err
			}
			users = append(users, user)
		}
		return users, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.User), nil
}

// Save upserts every mutable field. created_at is never touched.
func (r *UserRepository) Save(user *models.User) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO users (id, first_name, last_name, username, mobile_number, level, poll_index, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				username = excluded.username,
				mobile_number = excluded.mobile_number,
				level = excluded.level,
				poll_index = excluded.poll_index,
				completed = excluded.completed
		`, user.ID, user.FirstName, user.LastName, user.Username, user.MobileNumber, user.Level, user.PollIndex, user.Completed)
		return nil, err
	})
	return err
}

// Delete reports whether a row was actually removed.
func (r *UserRepository) Delete(id int64) (bool, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var firstName, lastName, username, mobile sql.NullString
	err := row.Scan(&user.ID, &firstName, &lastName, &username, &mobile,
		&user.Level, &user.PollIndex, &user.Completed, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Username = username.String
	user.MobileNumber = mobile.String
	return &user, nil
}
