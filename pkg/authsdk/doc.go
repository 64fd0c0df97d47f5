/*
Package authsdk provides a client SDK for the gatekeep authentication service.

# Overview

The service issues opaque session ids after a password or OAuth login and
optionally protects sensitive routes with a TOTP second factor. The SDK is
organised around two types:

  - SDKClient: unauthenticated operations (register, login, providers, health)
  - Session: operations on behalf of a logged in user

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, profile, err := client.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		return err
	}
	fmt.Println("logged in as", profile.Email)

	me, err := session.Me(ctx)

# Two-Factor Authentication

Enrollment is two calls. SetupTOTP returns the secret and a QR code to show
the user; VerifyTOTP with a code from their authenticator turns it on:

	setup, err := session.SetupTOTP(ctx)
	// show setup.QRCode, read a code from the user
	err = session.VerifyTOTP(ctx, code)

Once enabled, some routes need the current code in addition to the session.
Set Session.Code to prompt for it on demand, or use WithCode for one call:

	session.Code = func(ctx context.Context) (string, error) {
		return promptForCode()
	}
	_, err = session.UpdateProfile(ctx, authsdk.UpdateProfileRequest{Name: &name})

	n, err := session.WithCode("123456").RevokeOtherSessions(ctx)

A code is accepted once; reuse within the same 30 second step is rejected
with ErrMFAInvalid.

# Error Handling

Every non-2xx response is returned as an *APIError. Compare with the
predefined errors using errors.Is:

	_, err := session.UpdateProfile(ctx, req)
	switch {
	case errors.Is(err, authsdk.ErrMFARequired):
		// ask for a code and retry
	case errors.Is(err, authsdk.ErrSessionExpired), errors.Is(err, authsdk.ErrSessionNotFound):
		// log in again
	}

Use errors.As to read the HTTP status and description:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		log.Printf("status=%d code=%s: %s", apiErr.StatusCode, apiErr.Code, apiErr.Description)
	}

# OAuth Login

OAuth login is browser driven. Send the user to OAuthLoginURL; the service
sets the session cookie on the callback and returns the profile (or
redirects to return_to). Non-browser clients can wrap a session id they
obtained that way with NewSession.
*/
package authsdk
