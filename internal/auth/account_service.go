// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/wepieces/wepieces/pkg/errutil"
)

// User-facing messages returned by account actions.
const (
	MsgInvalidCredentials       = "Invalid email or password. Please try again."
	MsgLoginFailed              = "Failed to sign in. Please try again."
	MsgCreateUserFailed         = "Failed to create user. Please try again."
	MsgCurrentPasswordIncorrect = "Current password is incorrect."
	MsgPasswordUnchanged        = "New password must be different from the current password."
	MsgPasswordUpdated          = "Password updated successfully."
	MsgUpdatePasswordFailed     = "Failed to update password. Please try again."
	MsgDeleteWrongPassword      = "Incorrect password. Account deletion failed."
	MsgDeleteFailed             = "Failed to delete account. Please try again."
	MsgAccountUpdated           = "Account updated successfully."
	MsgUpdateAccountFailed      = "Failed to update account. Please try again."
	MsgSessionRefreshed         = "Session refreshed."
	MsgSessionRefreshFailed     = "Failed to refresh session. Please try again."
)

// Redirect targets.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

// dummyPasswordHash is compared against when no usable account matches the
// submitted email so that response time does not reveal whether it exists.
//
//nolint:gosec // G101: intentionally fake digest, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Actions are the gated entry points exposed to the transport layer.
type Actions struct {
	Login          Action
	Register       Action
	Logout         Action
	UpdatePassword Action
	DeleteAccount  Action
	UpdateAccount  Action
	RefreshSession Action
}

// AccountService implements the account flows.
type AccountService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens SessionCodec
	authn  CurrentUserResolver
	logger *slog.Logger
	forms  *accountForms
	now    func() time.Time
}

// NewAccountService creates a new AccountService. A nil logger uses slog.Default.
func NewAccountService(
	users UserRepository,
	hasher PasswordHasher,
	tokens SessionCodec,
	authn CurrentUserResolver,
	logger *slog.Logger,
) (*AccountService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session codec is required")
	}
	if authn == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("authenticator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	forms, err := compileAccountForms()
	if err != nil {
		return nil, oops.Code("AUTH_FORMS_FAILED").Wrap(err)
	}

	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		authn:  authn,
		logger: logger,
		forms:  forms,
		now:    time.Now,
	}, nil
}

// Actions returns the gated actions backed by this service.
func (s *AccountService) Actions() Actions {
	return Actions{
		Login:    Validated(s.forms.login, s.Login),
		Register: Validated(s.forms.register, s.Register),
		Logout: func(context.Context, Request) Result {
			return s.Logout()
		},
		UpdatePassword: ValidatedWithUser(s.authn, s.forms.updatePassword, s.UpdatePassword),
		DeleteAccount:  ValidatedWithUser(s.authn, s.forms.deleteAccount, s.DeleteAccount),
		UpdateAccount:  ValidatedWithUser(s.authn, s.forms.updateAccount, s.UpdateAccount),
		RefreshSession: ValidatedWithUser(s.authn, s.forms.empty, s.RefreshSession),
	}
}

// Login checks credentials and issues a session. The password comparison runs
// even when the email is unknown or belongs to a deleted account.
func (s *AccountService) Login(ctx context.Context, data LoginForm) Result {
	user, err := s.users.FindByEmail(ctx, data.Email)

	digest := dummyPasswordHash
	usable := false
	switch {
	case err == nil:
		if !user.IsDeleted() {
			digest = user.PasswordHash
			usable = true
		}
	case errors.Is(err, ErrNotFound):
	default:
		errutil.LogErrorContext(ctx, s.logger, "login lookup failed", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(err))
		return Failure(MsgLoginFailed)
	}

	valid := s.hasher.Compare(data.Password, digest)
	if !usable || !valid {
		return Failure(MsgInvalidCredentials)
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, data.Password)
	}

	session, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "login session issue failed", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session").
			With("user_id", user.ID.String()).
			Wrap(err))
		return Failure(MsgLoginFailed)
	}

	return Result{Redirect: HomePath, Session: &session}
}

// upgradeHash re-hashes a legacy digest. Failures are logged and ignored;
// login succeeds regardless.
func (s *AccountService) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehash legacy password",
			"user_id", user.ID.String(),
			"error", err)
		return
	}
	if err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &newHash}); err != nil {
		s.logger.WarnContext(ctx, "failed to persist upgraded password hash",
			"user_id", user.ID.String(),
			"error", err)
		return
	}
	user.PasswordHash = newHash
}

// Register creates a user with role "user" and signs it in. An email already
// present, including on a soft-deleted row, is rejected with the same message
// as any other failure.
func (s *AccountService) Register(ctx context.Context, data RegisterForm) Result {
	_, err := s.users.FindByEmail(ctx, data.Email)
	if err == nil {
		return Failure(MsgCreateUserFailed)
	}
	if !errors.Is(err, ErrNotFound) {
		errutil.LogErrorContext(ctx, s.logger, "register lookup failed", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find user by email").
			Wrap(err))
		return Failure(MsgCreateUserFailed)
	}

	hash, err := s.hasher.Hash(data.Password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "register hash failed", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err))
		return Failure(MsgCreateUserFailed)
	}

	user, err := NewUser(data.Email, hash, RoleUser)
	if err != nil {
		return Failure(MsgCreateUserFailed)
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if !errors.Is(err, ErrConflict) {
			errutil.LogErrorContext(ctx, s.logger, "register insert failed", oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "insert user").
				Wrap(err))
		}
		return Failure(MsgCreateUserFailed)
	}

	session, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "register session issue failed", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue session").
			With("user_id", user.ID.String()).
			Wrap(err))
		return RedirectTo(LoginPath)
	}

	return Result{Redirect: HomePath, Session: &session}
}

// Logout drops the client's session.
func (s *AccountService) Logout() Result {
	return Result{Redirect: HomePath, ClearSession: true}
}

// UpdatePassword re-verifies the current password before replacing it.
func (s *AccountService) UpdatePassword(ctx context.Context, data UpdatePasswordForm, user *User) Result {
	if !s.hasher.Compare(data.CurrentPassword, user.PasswordHash) {
		return Failure(MsgCurrentPasswordIncorrect)
	}
	if data.CurrentPassword == data.NewPassword {
		return Failure(MsgPasswordUnchanged)
	}

	hash, err := s.hasher.Hash(data.NewPassword)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password hash failed", oops.Code("AUTH_UPDATE_PASSWORD_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err))
		return Failure(MsgUpdatePasswordFailed)
	}

	if err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password update failed", oops.Code("AUTH_UPDATE_PASSWORD_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err))
		return Failure(MsgUpdatePasswordFailed)
	}

	return Succeeded(MsgPasswordUpdated, nil)
}

// DeleteAccount re-verifies the password, soft-deletes the user and clears the
// session.
func (s *AccountService) DeleteAccount(ctx context.Context, data DeleteAccountForm, user *User) Result {
	if !s.hasher.Compare(data.Password, user.PasswordHash) {
		return Failure(MsgDeleteWrongPassword)
	}

	if err := s.users.SoftDelete(ctx, user.ID); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "account deletion failed", oops.Code("AUTH_DELETE_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err))
		return Failure(MsgDeleteFailed)
	}

	s.logger.InfoContext(ctx, "account soft-deleted", "user_id", user.ID.String())
	return Result{Redirect: LoginPath, ClearSession: true}
}

// UpdateAccount changes the user's name and email.
func (s *AccountService) UpdateAccount(ctx context.Context, data UpdateAccountForm, user *User) Result {
	name, email := data.Name, data.Email
	if err := s.users.Update(ctx, user.ID, UserUpdate{Name: &name, Email: &email}); err != nil {
		if !errors.Is(err, ErrConflict) {
			errutil.LogErrorContext(ctx, s.logger, "account update failed", oops.Code("AUTH_UPDATE_ACCOUNT_FAILED").
				With("user_id", user.ID.String()).
				Wrap(err))
		}
		return Failure(MsgUpdateAccountFailed)
	}

	return Succeeded(MsgAccountUpdated, map[string]any{
		"name":  name,
		"email": email,
	})
}

// RefreshSession re-signs the session with a fresh expiry.
func (s *AccountService) RefreshSession(ctx context.Context, _ EmptyForm, user *User) Result {
	session, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session refresh failed", oops.Code("AUTH_REFRESH_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err))
		return Failure(MsgSessionRefreshFailed)
	}
	return Result{Success: MsgSessionRefreshed, Session: &session}
}
