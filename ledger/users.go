package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultInitialBalance is the starting balance of a user created without one.
const DefaultInitialBalance = "100"

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]{3,32}$`)

// NewUser is a request to register a user.
type NewUser struct {
	ID      UserID // optional, generated when empty
	Balance string // optional raw amount, DefaultInitialBalance when empty
	Dealer  string
}

// GenerateUserID returns a short random id such as "U-3F2A9C1B".
func GenerateUserID() UserID {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return UserID("U-" + strings.ToUpper(hex[:8]))
}

// ValidUserID reports whether id is acceptable for a caller-chosen user id.
func ValidUserID(id UserID) bool {
	return userIDPattern.MatchString(string(id))
}

// CreateUser registers a user with its initial balance. The initial balance
// is recorded as a "generate" history record so the history of every user
// replays from zero.
func (e *Engine) CreateUser(ctx context.Context, req NewUser) (User, error) {
	if req.ID != "" && !ValidUserID(req.ID) {
		return User{}, fmt.Errorf("%w: id must be 3-32 characters of A-Z a-z 0-9 - _ .", ErrInvalidRequest)
	}

	raw := req.Balance
	if strings.TrimSpace(raw) == "" {
		raw = DefaultInitialBalance
	}
	balance, err := ParseBalance(raw)
	if err != nil {
		return User{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	users, err := e.Collections.LoadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	history, err := e.Collections.LoadHistory(ctx)
	if err != nil {
		return User{}, err
	}

	id := req.ID
	if id == "" {
		id = e.NewUserID()
		for findUser(users, id) >= 0 {
			id = e.NewUserID()
		}
	} else if findUser(users, id) >= 0 {
		return User{}, fmt.Errorf("%w: %s", ErrUserExists, id)
	}

	user := User{ID: id, Balance: balance}
	users = append(users, user)
	history = prepend(history, HistoryRecord{
		Timestamp: e.timestamp(),
		ID:        id,
		Type:      EntryGenerate,
		Amount:    balance,
		Balance:   balance,
		Dealer:    Text(req.Dealer),
	})

	if err := e.persist(ctx, users, history, user); err != nil {
		return User{}, err
	}

	e.Log.WithFields(logrus.Fields{
		"user_id": id,
		"balance": balance.String(),
	}).Info("User created")

	return user, nil
}
