// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import "github.com/wepieces/wepieces/internal/form"

// LoginForm is submitted to sign in.
type LoginForm struct {
	Email    string `json:"email" jsonschema:"format=email,minLength=3,maxLength=255"`
	Password string `json:"password" jsonschema:"minLength=8,maxLength=100"`
}

// RegisterForm is submitted to create an account.
type RegisterForm struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=8"`
}

// UpdatePasswordForm is submitted to change the signed-in user's password.
type UpdatePasswordForm struct {
	CurrentPassword string `json:"currentPassword" jsonschema:"minLength=8,maxLength=100"`
	NewPassword     string `json:"newPassword" jsonschema:"minLength=8,maxLength=100"`
	ConfirmPassword string `json:"confirmPassword" jsonschema:"minLength=8,maxLength=100"`
}

// Refine checks that the confirmation matches the new password.
func (f *UpdatePasswordForm) Refine() *form.FieldError {
	if f.NewPassword != f.ConfirmPassword {
		return &form.FieldError{
			Field:   "confirmPassword",
			Keyword: "refine",
			Message: "Passwords don't match",
		}
	}
	return nil
}

// DeleteAccountForm is submitted to soft-delete the signed-in user.
type DeleteAccountForm struct {
	Password string `json:"password" jsonschema:"minLength=8,maxLength=100"`
}

// UpdateAccountForm is submitted to change the signed-in user's profile.
type UpdateAccountForm struct {
	Name  string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Email string `json:"email" jsonschema:"format=email"`
}

// Messages overrides the default validation messages.
func (UpdateAccountForm) Messages() map[string]string {
	return map[string]string{
		"name.minLength": "Name is required",
		"email.format":   "Invalid email address",
	}
}

// EmptyForm is used by actions that take no input.
type EmptyForm struct{}

type accountForms struct {
	login          *form.Schema[LoginForm]
	register       *form.Schema[RegisterForm]
	updatePassword *form.Schema[UpdatePasswordForm]
	deleteAccount  *form.Schema[DeleteAccountForm]
	updateAccount  *form.Schema[UpdateAccountForm]
	empty          *form.Schema[EmptyForm]
}

func compileAccountForms() (*accountForms, error) {
	var (
		f   accountForms
		err error
	)
	if f.login, err = form.Compile[LoginForm](); err != nil {
		return nil, err
	}
	if f.register, err = form.Compile[RegisterForm](); err != nil {
		return nil, err
	}
	if f.updatePassword, err = form.Compile[UpdatePasswordForm](); err != nil {
		return nil, err
	}
	if f.deleteAccount, err = form.Compile[DeleteAccountForm](); err != nil {
		return nil, err
	}
	if f.updateAccount, err = form.Compile[UpdateAccountForm](); err != nil {
		return nil, err
	}
	if f.empty, err = form.Compile[EmptyForm](); err != nil {
		return nil, err
	}
	return &f, nil
}
