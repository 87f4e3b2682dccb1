package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nft_marketplace/internal/apperr"
	"nft_marketplace/internal/cache"
	"nft_marketplace/internal/domain"
	"nft_marketplace/internal/repository"
	"nft_marketplace/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	minUsernameLength = 3               // Shortest username in characters
	maxUsernameLength = 30              // Longest username in characters
	minPasswordLength = 6               // Shortest accepted password
	walletNonceTTL    = 5 * time.Minute // How long a wallet challenge stays signable
	walletEmailDomain = "wallet.local"  // Domain of placeholder wallet accounts
)

// Auth registers users and exchanges credentials or wallet signatures for bearer tokens
type Auth struct {
	store  *repository.Store  // Persistence
	tokens *utils.TokenIssuer // JWT signing and verification
	cache  *cache.Cache       // Holds pending wallet nonces
}

// NewAuth creates the service
func NewAuth(store *repository.Store, tokens *utils.TokenIssuer, c *cache.Cache) *Auth {
	return &Auth{store: store, tokens: tokens, cache: c}
}

// Session is a freshly issued token and the user it belongs to
type Session struct {
	Token string
	User  *domain.User
}

// RegisterInput carries a new account
type RegisterInput struct {
	Username      string
	Email         string
	Password      string
	WalletAddress string // Optional
}

// Register creates an account and logs it in
func (a *Auth) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validUsername(username); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, apperr.Validation("A valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	user := &domain.User{Username: username, Email: email}
	if in.WalletAddress != "" {
		addr, err := utils.NormalizeAddress(in.WalletAddress)
		if err != nil {
			return nil, apperr.Validation("Invalid wallet address")
		}
		user.WalletAddress = &addr
	}

	exists, err := a.store.Users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, storageError(err, "")
	}
	if exists {
		return nil, userExists()
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user.Password = hash

	// The unique indexes still decide when two registrations race past the check above
	if err := a.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, userExists()
		}
		return nil, storageError(err, "")
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return a.issue(user)
}

// Login exchanges email and password for a token
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := a.store.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, storageError(err, "")
	}
	if !utils.CheckPassword(password, user.Password) {
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Warn("Login with wrong password")
		return nil, invalidCredentials()
	}
	return a.issue(user)
}

// WalletChallenge is what a wallet has to sign to log in
type WalletChallenge struct {
	Address string    `json:"address"`
	Nonce   string    `json:"nonce"`
	Message string    `json:"message"`
	Expires time.Time `json:"expiresAt"`
}

// WalletMessage is the exact text a wallet signs for a nonce
func WalletMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to NFT Marketplace\nWallet: %s\nNonce: %s", address, nonce)
}

// IssueWalletNonce stores a single-use nonce for address and returns the message to sign.
// Each nonce is keyed by its own value, so several pending challenges for one wallet coexist.
func (a *Auth) IssueWalletNonce(ctx context.Context, address string) (*WalletChallenge, error) {
	addr, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, apperr.Validation("Invalid wallet address")
	}
	nonce, err := utils.RandomToken(16) // 128 random bits, hex encoded
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := a.cache.SetString(ctx, cache.NonceKey(nonce), addr, walletNonceTTL); err != nil {
		return nil, apperr.Transient(err)
	}
	return &WalletChallenge{
		Address: addr,
		Nonce:   nonce,
		Message: WalletMessage(addr, nonce),
		Expires: time.Now().Add(walletNonceTTL),
	}, nil
}

// WalletLogin verifies a signed challenge and logs the wallet in,
// creating a placeholder account on first use
func (a *Auth) WalletLogin(ctx context.Context, address, nonce, signature string) (*Session, error) {
	addr, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, apperr.Validation("Invalid wallet address")
	}
	if nonce == "" {
		return nil, apperr.Validation("Nonce is required")
	}
	if signature == "" {
		return nil, apperr.Validation("Signature is required")
	}

	key := cache.NonceKey(nonce)
	pending, found, err := a.cache.GetString(ctx, key) // Peek, a bad signature must not burn the nonce
	if err != nil {
		return nil, apperr.Transient(err)
	}
	if !found || pending != addr {
		return nil, apperr.Unauthenticated("No pending wallet challenge, request a new nonce")
	}
	if err := utils.VerifyWalletSignature(addr, WalletMessage(addr, nonce), signature); err != nil {
		logrus.WithFields(logrus.Fields{"wallet": addr, "error": err.Error()}).Warn("Wallet signature rejected")
		return nil, apperr.Unauthenticated("Invalid wallet signature")
	}
	taken, found, err := a.cache.Take(ctx, key) // Single use: a concurrent replay finds it gone
	if err != nil {
		return nil, apperr.Transient(err)
	}
	if !found || taken != addr {
		return nil, apperr.Unauthenticated("No pending wallet challenge, request a new nonce")
	}

	user, err := a.store.Users.FindByWallet(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = a.provisionWallet(ctx, addr)
	}
	if err != nil {
		return nil, storageError(err, "")
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "wallet": addr}).Info("Wallet login")
	return a.issue(user)
}

// provisionWallet creates the placeholder account of a wallet. Its password hash is
// random, so the account can only ever log in by signature.
func (a *Auth) provisionWallet(ctx context.Context, addr string) (*domain.User, error) {
	secret, err := utils.RandomToken(32)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hash, err := utils.HashPassword(secret)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	hexPart := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	// Longer prefixes are only tried when a shorter one collides
	for _, n := range []int{8, 16, maxUsernameLength - len("user_")} {
		user := &domain.User{
			Username:      "user_" + hexPart[:n],
			Email:         hexPart[:n] + "@" + walletEmailDomain,
			Password:      hash,
			WalletAddress: &addr,
		}
		err := a.store.Users.Create(ctx, user)
		if err == nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "wallet": addr}).Info("Wallet account created")
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		// A concurrent login for the same wallet may have won
		if existing, err := a.store.Users.FindByWallet(ctx, addr); err == nil {
			return existing, nil
		}
	}
	return nil, apperr.New(apperr.KindConflict, apperr.CodeUserExists, "Could not allocate a username for this wallet", nil)
}

// Verify resolves a bearer token to its user id
func (a *Auth) Verify(token string) (string, error) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return "", apperr.Unauthenticated("Token is not valid")
	}
	return userID, nil
}

func (a *Auth) issue(user *domain.User) (*Session, error) {
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{Token: token, User: user}, nil
}

func validUsername(name string) error {
	if n := utf8.RuneCountInString(name); n < minUsernameLength || n > maxUsernameLength {
		return apperr.Validation("Username must be 3 to 30 characters")
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

func userExists() error {
	return apperr.New(apperr.KindValidation, apperr.CodeUserExists, "User with this email or username already exists", nil)
}

func invalidCredentials() error {
	return apperr.New(apperr.KindValidation, apperr.CodeInvalidCredentials, "Invalid credentials", nil)
}
