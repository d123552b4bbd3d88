/*
Package authsdk is the Go client for the SmartPlant authentication service
and holds the JSON types shared by client and server.

# SDKClient vs Session

SDKClient covers the calls that need no access token: registration, the two
login steps, refresh, health checks, bootstrap and the service introspection
endpoint. A Session wraps a token pair and refreshes the access token on its
own when it is about to expire.

	client := authsdk.NewSDKClient("https://auth.smartplant.example")

	// Step one: password. The service emails a six digit code.
	login, err := client.Login(ctx, "ana@example.com", password)

	// Step two: the code from the email.
	session, err := client.AuthenticateWithCode(ctx, login.TempToken, code)

	me, err := session.Me(ctx)

# Tokens

Access tokens are HS256 JWTs valid for fifteen minutes. Refresh tokens are
opaque, valid for seven days, and rotate on every use: a refresh token that
has been exchanged once is dead, so always keep the one from the latest
response. Session does this for you.

# Errors

Every failed call returns an *APIError carrying the HTTP status and the
error code from the response body. Compare with errors.Is against the
predefined values:

	_, err := client.VerifyMFA(ctx, tempToken, "000000")
	if errors.Is(err, authsdk.ErrInvalidCode) {
		// ask for the code again
	}

Five codes per account per fifteen minutes are allowed; after that Login and
ResendMFA fail with ErrRateLimited.
*/
package authsdk
