package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidjes1/fitnesstracker/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 30 * 24 * time.Hour
	sessionKeyPrefix = "fitness-tracker-session||"
	tokensSetKey     = "fitness-tracker-sessions"
	tokenLength      = 35
)

// accountNamespace makes account user ids stable across restarts.
var accountNamespace = uuid.MustParse("0b4f3c8e-5a57-4d55-9a3e-5e3b1d2f6c11")

type Account struct {
	Email        string
	PasswordHash string
}

type sessionRecord struct {
	UserID    string `json:"userId"`
	Label     string `json:"label"`
	Anonymous bool   `json:"anonymous"`
	CreatedAt int64  `json:"createdAt"`
}

// Service keeps sign-in sessions in redis, keyed by random tokens.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	accounts    map[string]Account
	// ability to inject generators (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
	NewUserIDFunc  func() string
}

func NewService(ttl time.Duration, redisClient *redis.Client, accounts []Account) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	byEmail := make(map[string]Account, len(accounts))
	for _, acc := range accounts {
		byEmail[normalizeEmail(acc.Email)] = acc
	}
	return &Service{
		redisClient:    redisClient,
		ttl:            ttl,
		accounts:       byEmail,
		RandStringFunc: pkg.GenerateRandomString,
		NewUserIDFunc:  uuid.NewString,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountUserID is the stable user id of an email account.
func AccountUserID(email string) string {
	return uuid.NewSHA1(accountNamespace, []byte(normalizeEmail(email))).String()
}

func (s *Service) CreateAnonymous(ctx context.Context, createdAt time.Time) (string, *Identity, error) {
	id := &Identity{
		ID:        s.NewUserIDFunc(),
		Label:     AnonymousLabel,
		Anonymous: true,
	}
	token, err := s.createSession(ctx, id, createdAt)
	if err != nil {
		return "", nil, err
	}
	return token, id, nil
}

func (s *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, *Identity, error) {
	acc, ok := s.accounts[normalizeEmail(creds.Email)]
	if !ok || !pkg.CheckPasswordHash(creds.Password, acc.PasswordHash) {
		return "", nil, ErrWrongCredentials
	}

	id := &Identity{
		ID:    AccountUserID(acc.Email),
		Label: normalizeEmail(acc.Email),
	}
	token, err := s.createSession(ctx, id, createdAt)
	if err != nil {
		return "", nil, err
	}
	return token, id, nil
}

func (s *Service) createSession(ctx context.Context, id *Identity, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	record, err := json.Marshal(sessionRecord{
		UserID:    id.ID,
		Label:     id.Label,
		Anonymous: id.Anonymous,
		CreatedAt: createdAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	if err := s.redisClient.Set(ctx, sessionKeyPrefix+token, string(record), 0).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	// add token to the set of sessions, for the cleanup scan
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return token, nil
}

// Resolve returns the identity signed in under token.
func (s *Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	record, err := s.getRecord(ctx, token)
	if err != nil {
		return nil, err
	}
	if time.Since(time.Unix(record.CreatedAt, 0)) > s.ttl {
		return nil, ErrSessionExpired
	}
	return &Identity{
		ID:        record.UserID,
		Label:     record.Label,
		Anonymous: record.Anonymous,
	}, nil
}

func (s *Service) getRecord(ctx context.Context, token string) (*sessionRecord, error) {
	raw, err := s.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &record, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	// remove token from the set of sessions
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return fmt.Errorf("unregister session: %w", err)
	}
	return nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean
// them if old. Returns the number of removed sessions.
func (s *Service) ScanAndClean(ctx context.Context) int {
	sessionTokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("identity service, scan and clean, get sessions: %s", err)
		return 0
	}
	if len(sessionTokens) == 0 {
		log.Debugln("identity service, scan and clean abort, no sessions")
		return 0
	}

	log.Debugf("identity service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		record, err := s.getRecord(ctx, token)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// dangling token in the set
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("identity service, scan and clean token %s: %s", token, err)
			continue
		}
		if time.Since(time.Unix(record.CreatedAt, 0)) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	removed := 0
	for _, token := range toRemove {
		if err := s.Logout(ctx, token); err != nil {
			log.Errorf("identity service, clean token %s: %s", token, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Infof("identity service, cleaned %d expired sessions", removed)
	}
	return removed
}
